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

// Package output writes reconstructed volumes to disk as NIfTI-1 images
// with optional JSON sidecars carrying the acquisition metadata.
package output

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/pvconv/pvconv/core/fileaccess"
	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/core/nifti"
	"github.com/pvconv/pvconv/data-convert/convertModels"
)

// NiftiSaver - writes image volumes out as NIfTI-1
type NiftiSaver struct {
	Version string // stamped into the header descrip and sidecars
}

// Save writes a volume to basePath plus the extension the options ask for,
// and the sidecar next to it when enabled. Returns the image path written.
func (s NiftiSaver) Save(vol *convertModels.ImageVolume, basePath string, opts convertModels.Options, log logger.ILogger) (string, error) {
	hdr, err := s.buildHeader(vol)
	if err != nil {
		return "", err
	}

	imgPath := basePath + ".nii"
	if opts.Compress {
		imgPath += ".gz"
	}

	log.Debugf("Writing %v", imgPath)
	if err := nifti.WriteFile(imgPath, hdr, vol.Data); err != nil {
		return "", errors.Wrapf(err, "failed to write %v", imgPath)
	}

	if opts.Sidecar {
		sidecarPath := basePath + ".json"
		log.Debugf("Writing %v", sidecarPath)

		localFS := &fileaccess.FSAccess{}
		if err := localFS.WriteJSON("", sidecarPath, SidecarFields(vol.Meta, s.Version)); err != nil {
			return "", errors.Wrapf(err, "failed to write %v", sidecarPath)
		}
	}

	return imgPath, nil
}

func (s NiftiSaver) buildHeader(vol *convertModels.ImageVolume) (*nifti.Header, error) {
	datatype, err := niftiDatatype(vol.DataType)
	if err != nil {
		return nil, err
	}

	hdr, err := nifti.NewHeader(vol.Dims, datatype, vol.Pixdim)
	if err != nil {
		return nil, err
	}

	hdr.SclSlope = float32(vol.SclSlope)
	hdr.SclInter = float32(vol.SclInter)
	hdr.SetDescrip(strings.TrimSpace(fmt.Sprintf("pvconv %v", s.Version)))

	if vol.Affine != nil {
		if err := nifti.SetSFormFromAffine(hdr, vol.Affine); err != nil {
			return nil, err
		}
		if err := nifti.SetQFormFromAffine(hdr, vol.Affine); err != nil {
			return nil, err
		}
	}

	return hdr, nil
}

func niftiDatatype(d convertModels.DataType) (int16, error) {
	switch d {
	case convertModels.DataTypeUint8:
		return nifti.DTUint8, nil
	case convertModels.DataTypeInt16:
		return nifti.DTInt16, nil
	case convertModels.DataTypeInt32:
		return nifti.DTInt32, nil
	case convertModels.DataTypeFloat32:
		return nifti.DTFloat32, nil
	case convertModels.DataTypeFloat64:
		return nifti.DTFloat64, nil
	}
	return 0, errors.Errorf("no NIfTI datatype for %v", d)
}
