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

// Package recon shapes raw 2dseq frame data into image volumes. Frames are
// described by the visu_pars frame group table, which this package uses to
// reorder slices to the front, split slice packs into separate volumes and
// resolve per-frame scaling.
package recon

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/data-convert/convertModels"
	"github.com/pvconv/pvconv/pvdataset"
)

// Reconstruct reads the frame data of a reco and shapes it into one image
// volume per slice pack. Multi-pack recos (localizers mostly) come back as
// multiple volumes because their packs have independent orientations.
func Reconstruct(reco *pvdataset.Reco, mode convertModels.ScaleMode, log logger.ILogger) ([]*convertModels.ImageVolume, error) {
	visu := reco.VisuPars()

	dataType, err := dataTypeOf(visu)
	if err != nil {
		return nil, err
	}

	byteOrder, err := byteOrderOf(visu)
	if err != nil {
		return nil, err
	}

	sizes64, ok := visu.GetInts("VisuCoreSize")
	if !ok {
		return nil, errors.New("VisuCoreSize missing, can't shape frames")
	}

	if dim, dok := visu.GetInt("VisuCoreDim"); dok && int(dim) != len(sizes64) {
		return nil, errors.Errorf("VisuCoreDim %v does not match VisuCoreSize with %v entries", dim, len(sizes64))
	}

	sizes := make([]int, len(sizes64))
	frameVoxels := 1
	for i, s := range sizes64 {
		sizes[i] = int(s)
		frameVoxels *= int(s)
	}

	frameCount := 1
	if n, ok := visu.GetInt("VisuCoreFrameCount"); ok {
		frameCount = int(n)
	}

	groups, err := frameGroupsOf(visu)
	if err != nil {
		return nil, err
	}

	if len(groups) > 0 {
		product := 1
		for _, g := range groups {
			product *= g.Length
		}
		if product != frameCount {
			return nil, errors.Errorf("frame count %v does not match frame group product %v", frameCount, product)
		}
	} else if frameCount > 1 {
		// No frame group table. 2D data with multiple frames is a slice
		// stack, anything else we call a cycle.
		id := "FG_CYCLE"
		if len(sizes) == 2 {
			id = "FG_SLICE"
		}
		groups = []frameGroup{{Length: frameCount, ID: id}}
	}

	data, err := reco.ReadFrames()
	if err != nil {
		return nil, err
	}

	frameBytes := frameVoxels * dataType.ByteSize()
	if len(data) != frameCount*frameBytes {
		return nil, errors.Errorf("2dseq has %v bytes, expected %v (%v frames x %v voxels x %v bytes)",
			len(data), frameCount*frameBytes, frameCount, frameVoxels, dataType.ByteSize())
	}

	if byteOrder == binary.BigEndian {
		log.Debugf("Byte swapping big endian frame data")
		swapToLittleEndian(data, dataType.ByteSize())
	}

	slopes := normalizeFrameValues(floatsOf(visu, "VisuCoreDataSlope"), frameCount, 1)
	offsets := normalizeFrameValues(floatsOf(visu, "VisuCoreDataOffs"), frameCount, 0)

	// Move the slice group to the front so slices are contiguous and land
	// on the third output dimension.
	lens := groupLengths(groups)
	slicePos, sliceLen := sliceAxis(groups)
	order := frameOrder(lens, slicePos)
	data = applyFrameOrder(data, frameBytes, order)
	slopes = applyFrameOrderValues(slopes, order)
	offsets = applyFrameOrderValues(offsets, order)

	if slicePos > 0 {
		reordered := []frameGroup{groups[slicePos]}
		for i, g := range groups {
			if i != slicePos {
				reordered = append(reordered, g)
			}
		}
		groups = reordered
	}

	packs := slicePacksOf(visu, sliceLen)
	if len(packs) > 1 {
		log.Infof("Splitting %v slice packs into separate volumes", len(packs))
	}
	restCount := 1
	if sliceLen > 0 {
		restCount = frameCount / sliceLen
	}

	resol := resolutionOf(visu, sizes)
	pose, _ := visu.GetString("VisuSubjectPosition")

	tr := float64(0)
	if trs := floatsOf(visu, "VisuAcqRepetitionTime"); len(trs) > 0 {
		tr = trs[0]
	}

	vols := []*convertModels.ImageVolume{}
	sliceStart := 0

	for packIdx, packSlices := range packs {
		vol := &convertModels.ImageVolume{
			DataType:       dataType,
			Data:           gatherPack(data, frameBytes, sliceLen, restCount, sliceStart, packSlices),
			FrameSlopes:    gatherPackValues(slopes, sliceLen, restCount, sliceStart, packSlices),
			FrameOffsets:   gatherPackValues(offsets, sliceLen, restCount, sliceStart, packSlices),
			SlicePack:      packIdx,
			SlicePackCount: len(packs),
		}

		vol.Dims = append(vol.Dims, sizes...)
		vol.Pixdim = append(vol.Pixdim, resol...)

		if len(sizes) == 2 {
			vol.Dims = append(vol.Dims, packSlices)
			vol.Pixdim = append(vol.Pixdim, sliceDistanceOf(visu, packIdx))
			vol.DimDesc = append(vol.DimDesc, "slice")
		}

		for i, g := range groups {
			if i == 0 && slicePos >= 0 {
				if len(sizes) == 2 {
					// Became the spatial z dimension above
					continue
				}
				// 3D data with a slice group, keep it but sized per pack
				vol.Dims = append(vol.Dims, packSlices)
				vol.DimDesc = append(vol.DimDesc, dimDescription(g.ID))
				continue
			}
			vol.Dims = append(vol.Dims, g.Length)
			vol.DimDesc = append(vol.DimDesc, dimDescription(g.ID))
		}

		// Temporal spacing for the first extra dimension, trailing ones
		// get unit spacing.
		for len(vol.Pixdim) < len(vol.Dims) {
			if len(vol.Pixdim) == 3 && tr > 0 {
				vol.Pixdim = append(vol.Pixdim, tr/1000)
			} else {
				vol.Pixdim = append(vol.Pixdim, 1)
			}
		}

		zSpacing := float64(1)
		if len(sizes) == 2 {
			zSpacing = sliceDistanceOf(visu, packIdx)
		} else if len(resol) > 2 {
			zSpacing = resol[2]
		}

		spacing := [3]float64{1, 1, zSpacing}
		if len(resol) > 0 {
			spacing[0] = resol[0]
		}
		if len(resol) > 1 {
			spacing[1] = resol[1]
		}

		vol.Affine = buildAffine(orientationOf(visu, sliceStart), positionOf(visu, sliceStart), spacing, pose)

		applyScaling(vol, mode, frameVoxels, log)
		vols = append(vols, vol)

		sliceStart += packSlices
	}

	return vols, nil
}
