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

package recon

import (
	"gonum.org/v1/gonum/mat"

	"github.com/pvconv/pvconv/core/jcampdx"
)

// floatsOf reads a numeric array parameter, flattening struct rows when the
// file stored it that way.
func floatsOf(visu *jcampdx.Params, key string) []float64 {
	if vals, ok := visu.GetFloats(key); ok {
		return vals
	}

	rows, ok := visu.GetRows(key)
	if !ok {
		return nil
	}

	vals := []float64{}
	for _, row := range rows {
		for _, cell := range row {
			if f, fok := cell.Float(); fok {
				vals = append(vals, f)
			}
		}
	}
	return vals
}

// resolutionOf - voxel spacing in mm per spatial dim: VisuCoreExtent/Size
func resolutionOf(visu *jcampdx.Params, sizes []int) []float64 {
	extent := floatsOf(visu, "VisuCoreExtent")

	resol := make([]float64, len(sizes))
	for i := range sizes {
		resol[i] = 1
		if i < len(extent) && sizes[i] > 0 {
			resol[i] = extent[i] / float64(sizes[i])
		}
	}
	return resol
}

// sliceDistanceOf - the third pixdim for 2D multislice recos. Slice pack
// distance when recorded, otherwise the frame thickness.
func sliceDistanceOf(visu *jcampdx.Params, packIdx int) float64 {
	dists := floatsOf(visu, "VisuCoreSlicePacksSliceDist")
	if len(dists) > 0 {
		if packIdx >= len(dists) {
			packIdx = len(dists) - 1
		}
		if dists[packIdx] > 0 {
			return dists[packIdx]
		}
	}

	if thickness, ok := visu.GetFloat("VisuCoreFrameThickness"); ok && thickness > 0 {
		return thickness
	}
	return 1
}

// orientationOf returns the 9 VisuCoreOrientation values for one slice, nil
// when the file has none. The table repeats per frame or per slice, indexes
// past the end clamp to the last row.
func orientationOf(visu *jcampdx.Params, sliceIdx int) []float64 {
	vals := floatsOf(visu, "VisuCoreOrientation")
	rows := len(vals) / 9
	if rows < 1 {
		return nil
	}

	if sliceIdx >= rows {
		sliceIdx = rows - 1
	}
	return vals[sliceIdx*9 : sliceIdx*9+9]
}

// positionOf - same for the 3 VisuCorePosition values
func positionOf(visu *jcampdx.Params, sliceIdx int) []float64 {
	vals := floatsOf(visu, "VisuCorePosition")
	rows := len(vals) / 3
	if rows < 1 {
		return nil
	}

	if sliceIdx >= rows {
		sliceIdx = rows - 1
	}
	return vals[sliceIdx*3 : sliceIdx*3+3]
}

// Rotations mapping the gradient frame onto subject RAS, keyed by
// VisuSubjectPosition. Head_Supine is the reference pose.
var poseRotations = map[string][]float64{
	"Head_Supine": {1, 0, 0, 0, 1, 0, 0, 0, 1},
	"Head_Prone":  {-1, 0, 0, 0, -1, 0, 0, 0, 1},
	"Head_Left":   {0, -1, 0, 1, 0, 0, 0, 0, 1},
	"Head_Right":  {0, 1, 0, -1, 0, 0, 0, 0, 1},
	"Foot_Supine": {-1, 0, 0, 0, 1, 0, 0, 0, -1},
	"Foot_Prone":  {1, 0, 0, 0, -1, 0, 0, 0, -1},
	"Foot_Left":   {0, 1, 0, 1, 0, 0, 0, 0, -1},
	"Foot_Right":  {0, -1, 0, -1, 0, 0, 0, 0, -1},
}

// buildAffine maps voxel indices to subject RAS mm: the transposed
// orientation matrix scaled by voxel spacing, translated to the first voxel
// position, then rotated for how the subject lay in the magnet.
func buildAffine(orient []float64, position []float64, spacing [3]float64, pose string) *mat.Dense {
	affine := mat.NewDense(4, 4, nil)
	affine.Set(3, 3, 1)

	rot := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	if len(orient) == 9 {
		rot = mat.NewDense(3, 3, orient)
	}

	for c := 0; c < 3; c++ {
		for r := 0; r < 3; r++ {
			// column c of the affine is row c of the stored matrix
			affine.Set(r, c, rot.At(c, r)*spacing[c])
		}
	}

	if len(position) == 3 {
		for r := 0; r < 3; r++ {
			affine.Set(r, 3, position[r])
		}
	}

	if p, ok := poseRotations[pose]; ok && pose != "Head_Supine" {
		poseMat := mat.NewDense(4, 4, nil)
		poseMat.Set(3, 3, 1)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				poseMat.Set(r, c, p[r*3+c])
			}
		}

		rotated := mat.NewDense(4, 4, nil)
		rotated.Mul(poseMat, affine)
		return rotated
	}

	return affine
}
