// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func Example_makeSaveableFileName() {
	fmt.Println(MakeSaveableFileName("T2_TurboRARE (coronal)"))
	fmt.Println(MakeSaveableFileName("1_Localizer/multi slice"))
	fmt.Println(MakeSaveableFileName("B0 Map: shim?"))

	// Output:
	// T2_TurboRARE__coronal_
	// 1_Localizer_multi_slice
	// B0_Map__shim_
}

func Example_makeAlphanumericLabel() {
	fmt.Println(MakeAlphanumericLabel("sub-01_test"))
	fmt.Println(MakeAlphanumericLabel("Rat #42 (week 3)"))
	fmt.Println(MakeAlphanumericLabel("___"))

	// Output:
	// sub01test
	// Rat42week3
	//
}

func Example_parseKeyValuePairs() {
	got, err := ParseKeyValuePairs([]string{"reverse=true", "offset=1.5", "note="})
	fmt.Printf("%v|%v|%v|%v\n", got["reverse"], got["offset"], got["note"], err)

	_, err = ParseKeyValuePairs([]string{"noequals"})
	fmt.Printf("%v\n", err)

	_, err = ParseKeyValuePairs([]string{"=bad"})
	fmt.Printf("%v\n", err)

	// Output:
	// true|1.5||<nil>
	// expected key=value, got: noequals
	// expected key=value, got: =bad
}

func TestZipDirectoryTree(t *testing.T) {
	src := t.TempDir()

	files := map[string]string{
		"subject":             "##TITLE=Parameter List, ParaVision 6.0.1\n",
		"1/acqp":              "##$ACQ_protocol_name=( 64 )\n<T1_FLASH>\n",
		"1/pdata/1/2dseq":     "\x01\x02\x03\x04",
		"1/pdata/1/visu_pars": "##$VisuCoreDim=2\n",
	}
	for name, content := range files {
		full := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0700); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}

	zipped, err := ZipDirectoryTree(src)
	if err != nil {
		t.Fatalf("ZipDirectoryTree: %v", err)
	}

	// Same tree, same bytes
	zipped2, err := ZipDirectoryTree(src)
	if err != nil {
		t.Fatalf("ZipDirectoryTree again: %v", err)
	}
	if !bytes.Equal(zipped, zipped2) {
		t.Errorf("zip output not deterministic")
	}

	// Round trip through UnzipDirectory
	zipPath := filepath.Join(t.TempDir(), "study.zip")
	if err := os.WriteFile(zipPath, zipped, 0600); err != nil {
		t.Fatal(err)
	}

	dest := t.TempDir()
	names, err := UnzipDirectory(zipPath, dest, false)
	if err != nil {
		t.Fatalf("UnzipDirectory: %v", err)
	}
	if len(names) != len(files) {
		t.Errorf("expected %v entries, got %v", len(files), len(names))
	}

	for name := range files {
		err = FilesEqual(filepath.Join(src, filepath.FromSlash(name)), filepath.Join(dest, filepath.FromSlash(name)))
		if err != nil {
			t.Errorf("%v", err)
		}
	}
}
