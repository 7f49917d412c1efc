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

package fileaccess

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pvconv/pvconv/core/utils"
)

// Implementation of file access using local file system. The "bucket" is
// just a root directory, paths are relative to it.
type FSAccess struct {
}

func (fsa *FSAccess) ListObjects(rootPath string, prefix string) ([]string, error) {
	result := []string{}

	rootOnly := path.Join(rootPath) // Using path.Join to make it match the fullPath cleans off ./ for example

	// A bucket that doesn't exist yet lists as empty, like S3 does for
	// unused prefixes
	if _, err := os.Stat(rootOnly); errors.Is(err, fs.ErrNotExist) {
		return result, nil
	}

	err := filepath.Walk(rootOnly, func(pathFound string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			// Paths come back relative to the root, forward slashed, so
			// callers can treat them like object keys
			toSave := pathFound
			if strings.HasPrefix(toSave, rootOnly) {
				toSave = toSave[len(rootOnly)+1:]
			}
			toSave = filepath.ToSlash(toSave)
			if strings.HasPrefix(toSave, prefix) {
				result = append(result, toSave)
			}
		}
		return nil
	})

	return result, err
}

func (fsa *FSAccess) ObjectExists(rootPath string, filePath string) (bool, error) {
	_, err := os.Stat(fsa.filePath(rootPath, filePath))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (fsa *FSAccess) ReadObject(rootPath string, filePath string) ([]byte, error) {
	return os.ReadFile(fsa.filePath(rootPath, filePath))
}

func (fsa *FSAccess) WriteObject(rootPath string, filePath string, data []byte) error {
	fullPath := fsa.filePath(rootPath, filePath)

	// Ensure any subdirs in between are created
	err := os.MkdirAll(filepath.Dir(fullPath), 0777)
	if err != nil {
		return err
	}

	// Write the file out, this will create if needed else truncate and write
	return os.WriteFile(fullPath, data, 0666)
}

func (fsa *FSAccess) ReadJSON(rootPath string, filePath string, itemsPtr interface{}, emptyIfNotFound bool) error {
	fileData, err := fsa.ReadObject(rootPath, filePath)

	// If we got an error, and it's a not-found, and we're told to ignore these and return empty data, then do so
	if err != nil {
		if emptyIfNotFound && fsa.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	return json.Unmarshal(fileData, itemsPtr)
}

func (fsa *FSAccess) WriteJSON(rootPath string, filePath string, itemsPtr interface{}) error {
	fileData, err := json.MarshalIndent(itemsPtr, "", utils.PrettyPrintIndentForJSON)
	if err != nil {
		return err
	}

	return fsa.WriteObject(rootPath, filePath, fileData)
}

func (fsa *FSAccess) DeleteObject(rootPath string, filePath string) error {
	return os.Remove(fsa.filePath(rootPath, filePath))
}

func (fsa *FSAccess) CopyObject(srcRootPath string, srcPath string, dstRootPath string, dstPath string) error {
	fin, err := os.Open(fsa.filePath(srcRootPath, srcPath))
	if err != nil {
		return err
	}
	defer fin.Close()

	dstFullPath := fsa.filePath(dstRootPath, dstPath)
	if err := os.MkdirAll(filepath.Dir(dstFullPath), 0777); err != nil {
		return err
	}

	fout, err := os.Create(dstFullPath)
	if err != nil {
		return err
	}
	defer fout.Close()

	_, err = io.Copy(fout, fin)
	return err
}

func (fsa *FSAccess) IsNotFoundError(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func (fsa *FSAccess) filePath(rootPath string, filePath string) string {
	return filepath.Join(rootPath, filepath.FromSlash(filePath))
}

// MakeEmptyLocalDirectory creates (or wipes) the named subdirectory, for
// callers that need a clean scratch area to download or unzip into
func MakeEmptyLocalDirectory(parentDir string, subDir string) (string, error) {
	fullPath := filepath.Join(parentDir, subDir)

	if err := os.RemoveAll(fullPath); err != nil {
		return fullPath, err
	}
	return fullPath, os.MkdirAll(fullPath, 0777)
}
