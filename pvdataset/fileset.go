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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// FileSet is the read surface a study sits on. Implementations exist for
// plain directories, zip archives and loose files supplied one by one, so
// the rest of the package never cares where the bytes come from. Paths are
// relative to the study root and always use forward slashes.
type FileSet interface {
	Exists(relPath string) bool
	Read(relPath string) ([]byte, error)
	ListDir(relPath string) ([]string, error)
}

// Plain on-disk study directory.
type dirFileSet struct {
	root string
}

func (d *dirFileSet) Exists(relPath string) bool {
	info, err := os.Stat(filepath.Join(d.root, filepath.FromSlash(relPath)))
	return err == nil && !info.IsDir()
}

func (d *dirFileSet) Read(relPath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.root, filepath.FromSlash(relPath)))
}

func (d *dirFileSet) ListDir(relPath string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(d.root, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// Loose files passed individually, eg a 2dseq+visu_pars pair someone copied
// out of a study. Files are mapped into the standard layout under scan 1,
// reco 1 so the usual accessors keep working.
type looseFileSet struct {
	files map[string]string // study-relative path -> source path on disk
}

var looseSlots = map[string]string{
	"subject":   "subject",
	"acqp":      "1/acqp",
	"method":    "1/method",
	"fid":       "1/fid",
	"visu_pars": "1/pdata/1/visu_pars",
	"2dseq":     "1/pdata/1/2dseq",
	"reco":      "1/pdata/1/reco",
}

func makeLooseFileSet(paths []string) (*looseFileSet, error) {
	fs := &looseFileSet{files: map[string]string{}}

	for _, path := range paths {
		slot, ok := looseSlots[filepath.Base(path)]
		if !ok {
			// Not a ParaVision file name we recognise, skip it
			continue
		}

		if existing, dup := fs.files[slot]; dup {
			return nil, errors.Errorf("both %v and %v would map to %v", existing, path, slot)
		}
		fs.files[slot] = path
	}

	if len(fs.files) <= 0 {
		return nil, errors.New("no recognisable ParaVision files supplied")
	}
	return fs, nil
}

func (l *looseFileSet) Exists(relPath string) bool {
	_, ok := l.files[relPath]
	return ok
}

func (l *looseFileSet) Read(relPath string) ([]byte, error) {
	src, ok := l.files[relPath]
	if !ok {
		return nil, errors.Errorf("%v was not supplied", relPath)
	}
	return os.ReadFile(src)
}

func (l *looseFileSet) ListDir(relPath string) ([]string, error) {
	paths := []string{}
	for p := range l.files {
		paths = append(paths, p)
	}
	return listChildren(paths, relPath), nil
}

// listChildren returns the unique immediate children of relPath given all
// file paths in a tree. Zip archives and loose file sets have no reliable
// directory entries, so directories are inferred from the file paths.
func listChildren(paths []string, relPath string) []string {
	prefix := ""
	if relPath != "" {
		prefix = relPath + "/"
	}

	seen := map[string]bool{}
	names := []string{}
	for _, p := range paths {
		if !strings.HasPrefix(p, prefix) {
			continue
		}

		name := strings.TrimPrefix(p, prefix)
		if idx := strings.Index(name, "/"); idx >= 0 {
			name = name[:idx]
		}
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names
}
