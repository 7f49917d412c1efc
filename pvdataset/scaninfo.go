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
	"strings"

	"github.com/pvconv/pvconv/core/jcampdx"
)

// ScanInfo is the acquisition summary of one scan, assembled from acqp.
// Everything here is display data, converters read the raw parameters.
type ScanInfo struct {
	Protocol  string
	Sequence  string    // eg "Bruker:RARE"
	TRms      []float64 // repetition time(s), ms
	TEms      []float64 // echo time(s), ms
	FlipAngle float64   // degrees
	EffBWHz   float64   // effective bandwidth (SW_h)
	NumEchoes int
}

// Info assembles the scan summary. Missing parameters stay at zero values.
func (s *Scan) Info() ScanInfo {
	info := ScanInfo{}

	acqp := s.acqp
	if acqp == nil {
		return info
	}

	info.Protocol, _ = acqp.GetString("ACQ_protocol_name")
	info.Sequence, _ = acqp.GetString("ACQ_method")
	info.TRms, _ = acqp.GetFloats("ACQ_repetition_time")
	info.TEms, _ = acqp.GetFloats("ACQ_echo_time")
	info.FlipAngle, _ = acqp.GetFloat("ACQ_flip_angle")
	info.EffBWHz, _ = acqp.GetFloat("SW_h")
	if n, ok := acqp.GetInt("ACQ_n_echo_images"); ok {
		info.NumEchoes = int(n)
	}

	return info
}

// RecoInfo is the reconstruction summary of one reco, from visu_pars.
type RecoInfo struct {
	MatrixSize       []int     // in-plane (or 3D) voxel counts
	ResolutionMm     []float64 // voxel size per matrix dim
	NumSlices        []int     // slices per slice pack
	SlicePacks       int
	TemporalResolMs  float64  // time per frame when the reco is a series
	DimDesc          []string // meaning of dims past the 2nd
	SliceDistancesMm []float64
}

// Info assembles the reco summary
func (r *Reco) Info() RecoInfo {
	info := RecoInfo{}

	visu := r.visu
	if visu == nil {
		return info
	}

	if sizes, ok := visu.GetInts("VisuCoreSize"); ok {
		for _, s := range sizes {
			info.MatrixSize = append(info.MatrixSize, int(s))
		}
	}

	if extents, ok := visu.GetFloats("VisuCoreExtent"); ok {
		for i, e := range extents {
			if i < len(info.MatrixSize) && info.MatrixSize[i] > 0 {
				info.ResolutionMm = append(info.ResolutionMm, e/float64(info.MatrixSize[i]))
			}
		}
	}

	info.SlicePacks = 1
	if packs, ok := visu.GetRows("VisuCoreSlicePacksSlices"); ok && len(packs) > 0 {
		info.SlicePacks = len(packs)
		for _, row := range packs {
			if len(row) >= 2 {
				if n, ok := row[1].Int(); ok {
					info.NumSlices = append(info.NumSlices, int(n))
				}
			}
		}
	}

	info.DimDesc = recoDimDesc(visu)

	if len(info.NumSlices) <= 0 {
		// Single pack studies often omit the pack parameters
		if n := sliceCountOf(visu, info.MatrixSize); n > 0 {
			info.NumSlices = []int{n}
		}
	}

	if dists, ok := visu.GetFloats("VisuCoreSlicePacksSliceDist"); ok {
		info.SliceDistancesMm = dists
	} else if thick, ok := visu.GetFloat("VisuCoreFrameThickness"); ok && thick > 0 {
		info.SliceDistancesMm = []float64{thick}
	}

	info.TemporalResolMs = temporalResolOf(visu)

	return info
}

// recoDimDesc reads the frame group order and names what each dimension
// past the in-plane ones means
func recoDimDesc(visu *jcampdx.Params) []string {
	desc := []string{}
	if rows, ok := visu.GetRows("VisuFGOrderDesc"); ok {
		for _, row := range rows {
			if len(row) >= 2 {
				desc = append(desc, fgDimName(row[1].String()))
			}
		}
	}
	return desc
}

func fgDimName(id string) string {
	name := strings.ToLower(strings.TrimPrefix(strings.Trim(id, "<>"), "FG_"))
	if len(name) <= 0 {
		return "frame"
	}
	return name
}

// sliceCountOf works out how many slices a single pack reco has when the
// pack parameters are missing: 3D recos carry it in the third core size,
// 2D multislice in the FG_SLICE group length.
func sliceCountOf(visu *jcampdx.Params, matrix []int) int {
	if dim, ok := visu.GetInt("VisuCoreDim"); ok && dim >= 3 && len(matrix) >= 3 {
		return matrix[2]
	}

	if rows, ok := visu.GetRows("VisuFGOrderDesc"); ok {
		for _, row := range rows {
			if len(row) >= 2 && fgDimName(row[1].String()) == "slice" {
				if n, ok := row[0].Int(); ok {
					return int(n)
				}
			}
		}
	}

	if frames, ok := visu.GetInt("VisuCoreFrameCount"); ok {
		return int(frames)
	}
	return 0
}

// temporalResolOf is the per-frame acquisition time for time series recos.
// ParaVision stores it directly when the reco cycles, otherwise derive it
// from the total scan time.
func temporalResolOf(visu *jcampdx.Params) float64 {
	if ft, ok := visu.GetFloat("VisuAcqFrameTime"); ok && ft > 0 {
		return ft
	}

	cycles := 0
	if rows, ok := visu.GetRows("VisuFGOrderDesc"); ok {
		for _, row := range rows {
			if len(row) >= 2 && fgDimName(row[1].String()) == "cycle" {
				if n, ok := row[0].Int(); ok {
					cycles = int(n)
				}
			}
		}
	}
	if cycles <= 0 {
		return 0
	}

	if scanTime, ok := visu.GetFloat("VisuAcqScanTime"); ok && scanTime > 0 {
		return scanTime / float64(cycles)
	}
	return 0
}
