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
	"fmt"

	"github.com/pkg/errors"
	"github.com/pvconv/pvconv/core/jcampdx"
	"github.com/pvconv/pvconv/core/logger"
)

// Reco is one reconstruction of a scan: the visu_pars parameters plus the
// 2dseq frame data. The optional reco file records the reconstruction
// settings ParaVision itself used.
type Reco struct {
	ScanID int
	ID     int

	fs       FileSet
	dataPath string
	visu     *jcampdx.Params
	reco     *jcampdx.Params
}

// loadReco reads reconstruction recoID of scan scanID from fs. Returns nil
// (no error) when there is no visu_pars, without it frames can't be
// interpreted, so the directory isn't a usable reconstruction.
func loadReco(fs FileSet, scanID int, recoID int, log logger.ILogger) (*Reco, error) {
	dir := fmt.Sprintf("%v/pdata/%v", scanID, recoID)
	if !fs.Exists(dir + "/visu_pars") {
		return nil, nil
	}

	visu, err := parseParamsFile(fs, dir+"/visu_pars", log)
	if err != nil {
		return nil, err
	}

	reco := &Reco{
		ScanID:   scanID,
		ID:       recoID,
		fs:       fs,
		dataPath: dir + "/2dseq",
		visu:     visu,
	}

	if fs.Exists(dir + "/reco") {
		if reco.reco, err = parseParamsFile(fs, dir+"/reco", log); err != nil {
			return nil, err
		}
	}

	return reco, nil
}

// VisuPars returns the visu_pars parameters, never nil.
func (r *Reco) VisuPars() *jcampdx.Params {
	return r.visu
}

// RecoParams returns the reco file parameters, nil when not present.
func (r *Reco) RecoParams() *jcampdx.Params {
	return r.reco
}

// HasFrames tells if the 2dseq file exists.
func (r *Reco) HasFrames() bool {
	return r.fs.Exists(r.dataPath)
}

// ReadFrames reads the raw 2dseq frame data.
func (r *Reco) ReadFrames() ([]byte, error) {
	if !r.HasFrames() {
		return nil, errors.Errorf("reco %v of scan %v has no 2dseq file", r.ID, r.ScanID)
	}

	data, err := r.fs.Read(r.dataPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read 2dseq for reco %v of scan %v", r.ID, r.ScanID)
	}
	return data, nil
}
