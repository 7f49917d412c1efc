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
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pvconv/pvconv/core/utils"
)

var errMemNotFound = fmt.Errorf("object not found")

// In-memory implementation, stands in for S3 in archive unit tests
type MemoryFileAccess struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
}

func MakeMemoryFileAccess() *MemoryFileAccess {
	return &MemoryFileAccess{buckets: map[string]map[string][]byte{}}
}

func (m *MemoryFileAccess) ListObjects(bucket string, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []string{}
	for path := range m.buckets[bucket] {
		if strings.HasPrefix(path, prefix) {
			result = append(result, path)
		}
	}
	sort.Strings(result)
	return result, nil
}

func (m *MemoryFileAccess) ObjectExists(bucket string, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.buckets[bucket][path]
	return ok, nil
}

func (m *MemoryFileAccess) ReadObject(bucket string, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.buckets[bucket][path]
	if !ok {
		return nil, fmt.Errorf("%v/%v: %w", bucket, path, errMemNotFound)
	}
	return data, nil
}

func (m *MemoryFileAccess) WriteObject(bucket string, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.buckets[bucket] == nil {
		m.buckets[bucket] = map[string][]byte{}
	}
	saved := make([]byte, len(data))
	copy(saved, data)
	m.buckets[bucket][path] = saved
	return nil
}

func (m *MemoryFileAccess) ReadJSON(bucket string, path string, itemsPtr interface{}, emptyIfNotFound bool) error {
	fileData, err := m.ReadObject(bucket, path)
	if err != nil {
		if emptyIfNotFound && m.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	return json.Unmarshal(fileData, itemsPtr)
}

func (m *MemoryFileAccess) WriteJSON(bucket string, path string, itemsPtr interface{}) error {
	fileData, err := json.MarshalIndent(itemsPtr, "", utils.PrettyPrintIndentForJSON)
	if err != nil {
		return err
	}

	return m.WriteObject(bucket, path, fileData)
}

func (m *MemoryFileAccess) DeleteObject(bucket string, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buckets[bucket][path]; !ok {
		return fmt.Errorf("%v/%v: %w", bucket, path, errMemNotFound)
	}
	delete(m.buckets[bucket], path)
	return nil
}

func (m *MemoryFileAccess) CopyObject(srcBucket string, srcPath string, dstBucket string, dstPath string) error {
	data, err := m.ReadObject(srcBucket, srcPath)
	if err != nil {
		return err
	}
	return m.WriteObject(dstBucket, dstPath, data)
}

func (m *MemoryFileAccess) IsNotFoundError(err error) bool {
	return err != nil && strings.Contains(err.Error(), errMemNotFound.Error())
}
