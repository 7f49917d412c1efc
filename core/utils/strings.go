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
	"fmt"
	"strings"
)

func StringInSlice(a string, list []string) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}

// MakeSaveableFileName - Given a name which may not be acceptable as a file name, generate a string for a file name
// that won't have issues. Scanner protocol names contain slashes, colons and
// anything else an operator typed in.
func MakeSaveableFileName(name string) string {
	result := ""
	for _, ch := range name {
		if ch >= 'a' && ch <= 'z' ||
			ch >= 'A' && ch <= 'Z' ||
			ch >= '0' && ch <= '9' ||
			ch == '-' ||
			ch == '_' ||
			ch == '.' {
			result += string(ch)
		} else {
			result += "_"
		}
	}

	return result
}

// MakeAlphanumericLabel - strips a name down to letters and digits only.
// Layout entity labels (sub-<label> etc) allow nothing else.
func MakeAlphanumericLabel(name string) string {
	result := ""
	for _, ch := range name {
		if ch >= 'a' && ch <= 'z' ||
			ch >= 'A' && ch <= 'Z' ||
			ch >= '0' && ch <= '9' {
			result += string(ch)
		}
	}
	return result
}

// ParseKeyValuePairs - parses "key=value" strings as passed to plugin
// config flags. Keys must be non-empty, values may be.
func ParseKeyValuePairs(pairs []string) (map[string]string, error) {
	result := map[string]string{}
	for _, pair := range pairs {
		eq := strings.Index(pair, "=")
		if eq < 1 {
			return nil, fmt.Errorf("expected key=value, got: %v", pair)
		}
		result[pair[:eq]] = pair[eq+1:]
	}
	return result, nil
}

// PrettyPrintIndentForJSON Pretty-print indenting of JSON
const PrettyPrintIndentForJSON = "    "
