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

package pvdataset

import (
	"archive/zip"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Zip archived study (.zip or .PvDatasets), read without extraction.
type zipFileSet struct {
	reader *zip.ReadCloser
	files  map[string]*zip.File
	names  []string
}

var scanMarkerPattern = regexp.MustCompile(`^\d+/acqp$`)

func makeZipFileSet(path string) (*zipFileSet, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open archive %v", path)
	}

	names := []string{}
	byName := map[string]*zip.File{}
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}

		name := strings.ReplaceAll(f.Name, "\\", "/")
		if strings.HasPrefix(name, "__MACOSX") {
			continue
		}

		names = append(names, name)
		byName[name] = f
	}

	// Studies are usually zipped with the study directory as the single
	// top level folder. Strip it so paths line up with the bare layout.
	prefix := studyPrefix(names)

	fs := &zipFileSet{reader: reader, files: map[string]*zip.File{}}
	for name, f := range byName {
		if strings.HasPrefix(name, prefix) {
			rel := strings.TrimPrefix(name, prefix)
			fs.files[rel] = f
			fs.names = append(fs.names, rel)
		}
	}
	return fs, nil
}

// studyPrefix decides what to cut off the front of every entry name. If the
// archive root already looks like a study, nothing. Otherwise a single
// non-numeric top level folder is taken to be the study directory.
func studyPrefix(names []string) string {
	if hasStudyMarkerNames(names) {
		return ""
	}

	top := ""
	for _, name := range names {
		idx := strings.Index(name, "/")
		if idx < 0 {
			// File at the archive root, nothing to strip
			return ""
		}

		if top == "" {
			top = name[:idx]
		} else if top != name[:idx] {
			return ""
		}
	}

	if top == "" || isAllDigits(top) {
		return ""
	}
	return top + "/"
}

func hasStudyMarkerNames(names []string) bool {
	for _, name := range names {
		if name == subjectFileName || scanMarkerPattern.MatchString(name) {
			return true
		}
	}
	return false
}

func isAllDigits(s string) bool {
	if len(s) <= 0 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (z *zipFileSet) Exists(relPath string) bool {
	_, ok := z.files[relPath]
	return ok
}

func (z *zipFileSet) Read(relPath string) ([]byte, error) {
	f, ok := z.files[relPath]
	if !ok {
		return nil, errors.Errorf("%v not found in archive", relPath)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %v in archive", relPath)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func (z *zipFileSet) ListDir(relPath string) ([]string, error) {
	return listChildren(z.names, relPath), nil
}

func (z *zipFileSet) Close() error {
	return z.reader.Close()
}
