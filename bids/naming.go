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

package bids

import (
	"fmt"
	"path"

	"github.com/pvconv/pvconv/core/utils"
)

// Name is one file's position in the layout. Labels must already be
// alphanumeric, MakeLabel does that.
type Name struct {
	Subject  string // required
	Session  string
	DataType string // required: anat, func, dwi...
	Acq      string
	Run      int    // 0 omits the entity
	Suffix   string // required: T2w, bold...
}

// MakeLabel strips a free-form name down to a legal entity label
func MakeLabel(name string) string {
	return utils.MakeAlphanumericLabel(name)
}

// Stem is the file name without extension:
// sub-X[_ses-Y][_acq-A][_run-N]_suffix
func (n Name) Stem() string {
	stem := "sub-" + n.Subject
	if len(n.Session) > 0 {
		stem += "_ses-" + n.Session
	}
	if len(n.Acq) > 0 {
		stem += "_acq-" + n.Acq
	}
	if n.Run > 0 {
		stem += fmt.Sprintf("_run-%02d", n.Run)
	}
	return stem + "_" + n.Suffix
}

// Dir is the directory the file sits in, relative to the layout root:
// sub-X[/ses-Y]/<datatype>
func (n Name) Dir() string {
	dir := "sub-" + n.Subject
	if len(n.Session) > 0 {
		dir = path.Join(dir, "ses-"+n.Session)
	}
	return path.Join(dir, n.DataType)
}

// RelPath - directory plus stem, extension left to the writer
func (n Name) RelPath() string {
	return path.Join(n.Dir(), n.Stem())
}
