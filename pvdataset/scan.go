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
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/pvconv/pvconv/core/jcampdx"
	"github.com/pvconv/pvconv/core/logger"
)

// Scan is one acquisition in a study: an acqp file, usually a method file,
// and zero or more reconstructions under pdata/.
type Scan struct {
	ID int

	fs      FileSet
	acqp    *jcampdx.Params
	method  *jcampdx.Params
	recos   map[int]*Reco
	recoIDs []int
}

// loadScan reads scan id from fs. Returns nil (no error) when the directory
// is not a scan at all. A directory counts as a scan if it has an acqp file
// or at least one reconstruction, partial exports often lack the former.
func loadScan(fs FileSet, id int, log logger.ILogger) (*Scan, error) {
	dir := strconv.Itoa(id)

	scan := &Scan{
		ID:    id,
		fs:    fs,
		recos: map[int]*Reco{},
	}

	var err error
	if fs.Exists(dir + "/acqp") {
		if scan.acqp, err = parseParamsFile(fs, dir+"/acqp", log); err != nil {
			return nil, err
		}
	}
	if fs.Exists(dir + "/method") {
		if scan.method, err = parseParamsFile(fs, dir+"/method", log); err != nil {
			return nil, err
		}
	}

	names, err := fs.ListDir(dir + "/pdata")
	if err != nil {
		// No pdata at all, a fid-only scan
		names = nil
	}

	for _, name := range names {
		recoID, err := strconv.Atoi(name)
		if err != nil || recoID < 0 {
			continue
		}

		reco, err := loadReco(fs, id, recoID, log)
		if err != nil {
			return nil, err
		}
		if reco == nil {
			continue
		}

		scan.recos[recoID] = reco
		scan.recoIDs = append(scan.recoIDs, recoID)
	}
	sort.Ints(scan.recoIDs)

	if scan.acqp == nil && len(scan.recoIDs) <= 0 {
		return nil, nil
	}
	return scan, nil
}

// Acqp returns the acquisition parameters. Nil when the file is missing,
// which only happens for partial exports.
func (s *Scan) Acqp() *jcampdx.Params {
	return s.acqp
}

// Method returns the method parameters, nil when the scan has no method file.
func (s *Scan) Method() *jcampdx.Params {
	return s.method
}

// RecoIDs returns the ids of all reconstructions, sorted ascending. Empty
// for fid-only scans.
func (s *Scan) RecoIDs() []int {
	ids := make([]int, len(s.recoIDs))
	copy(ids, s.recoIDs)
	return ids
}

// Reco looks up one reconstruction by id.
func (s *Scan) Reco(id int) (*Reco, error) {
	reco, ok := s.recos[id]
	if !ok {
		return nil, errors.Errorf("reco %v not found in scan %v", id, s.ID)
	}
	return reco, nil
}
