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
	"strings"

	"github.com/pkg/errors"
	"github.com/pvconv/pvconv/core/jcampdx"
)

// frameGroup - one row of VisuFGOrderDesc:
// (length, <FG_X>, <comment>, depStart, depCount)
// Groups are listed fastest varying first and their lengths multiply up to
// VisuCoreFrameCount.
type frameGroup struct {
	Length  int
	ID      string
	Comment string
}

func frameGroupsOf(visu *jcampdx.Params) ([]frameGroup, error) {
	rows, ok := visu.GetRows("VisuFGOrderDesc")
	if !ok {
		return nil, nil
	}

	groups := []frameGroup{}
	for _, row := range rows {
		if len(row) < 2 {
			return nil, errors.Errorf("malformed VisuFGOrderDesc row with %v cells", len(row))
		}

		length, ok := row[0].Int()
		if !ok || length <= 0 {
			return nil, errors.Errorf("bad frame group length %v", row[0].String())
		}

		group := frameGroup{Length: int(length), ID: row[1].String()}
		if len(row) > 2 {
			group.Comment = row[2].String()
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func groupLengths(groups []frameGroup) []int {
	lens := make([]int, len(groups))
	for i, g := range groups {
		lens[i] = g.Length
	}
	return lens
}

// dimDescription - human name for a frame group id, FG_ECHO becomes "echo"
func dimDescription(id string) string {
	return strings.ToLower(strings.TrimPrefix(id, "FG_"))
}

// sliceAxis locates the FG_SLICE group. Returns -1, 1 when there is none.
func sliceAxis(groups []frameGroup) (int, int) {
	for i, g := range groups {
		if g.ID == "FG_SLICE" {
			return i, g.Length
		}
	}
	return -1, 1
}

// frameOrder builds the frame permutation that moves the slice group to the
// front, so slices end up contiguous and land on the third output dim.
// order[target] = source. Nil when no reordering is needed.
func frameOrder(lens []int, slicePos int) []int {
	if slicePos <= 0 {
		return nil
	}

	frameCount := 1
	strides := make([]int, len(lens))
	for i, l := range lens {
		strides[i] = frameCount
		frameCount *= l
	}

	// Axes in target order: slice first, the rest keep their relative order
	axes := []int{slicePos}
	for i := range lens {
		if i != slicePos {
			axes = append(axes, i)
		}
	}

	order := make([]int, 0, frameCount)
	idx := make([]int, len(lens)) // multi-index along axes, first fastest
	for target := 0; target < frameCount; target++ {
		src := 0
		for ai, axis := range axes {
			src += idx[ai] * strides[axis]
		}
		order = append(order, src)

		for ai := range idx {
			idx[ai]++
			if idx[ai] < lens[axes[ai]] {
				break
			}
			idx[ai] = 0
		}
	}
	return order
}

func applyFrameOrder(data []byte, frameBytes int, order []int) []byte {
	if order == nil {
		return data
	}

	out := make([]byte, len(data))
	for target, src := range order {
		copy(out[target*frameBytes:(target+1)*frameBytes], data[src*frameBytes:(src+1)*frameBytes])
	}
	return out
}

func applyFrameOrderValues(vals []float64, order []int) []float64 {
	if order == nil {
		return vals
	}

	out := make([]float64, len(vals))
	for target, src := range order {
		out[target] = vals[src]
	}
	return out
}

// slicePacksOf reads VisuCoreSlicePacksSlices, rows of (id, sliceCount).
// Falls back to a single pack holding every slice when the table is absent
// or inconsistent with the slice group.
func slicePacksOf(visu *jcampdx.Params, totalSlices int) []int {
	counts := []int{}

	if rows, ok := visu.GetRows("VisuCoreSlicePacksSlices"); ok {
		for _, row := range rows {
			if len(row) < 2 {
				continue
			}
			if n, nok := row[1].Int(); nok && n > 0 {
				counts = append(counts, int(n))
			}
		}
	} else if ints, ok := visu.GetInts("VisuCoreSlicePacksSlices"); ok {
		for _, n := range ints {
			if n > 0 {
				counts = append(counts, int(n))
			}
		}
	}

	sum := 0
	for _, n := range counts {
		sum += n
	}
	if len(counts) <= 1 || sum != totalSlices {
		return []int{totalSlices}
	}
	return counts
}

// gatherPack pulls out the frames belonging to one slice pack. Assumes the
// slice group is the first (fastest) frame dim, so each pack is a run of
// `count` frames repeating every `sliceLen` frames.
func gatherPack(data []byte, frameBytes int, sliceLen int, restCount int, start int, count int) []byte {
	if count == sliceLen {
		return data
	}

	out := make([]byte, 0, count*restCount*frameBytes)
	for r := 0; r < restCount; r++ {
		base := (r*sliceLen + start) * frameBytes
		out = append(out, data[base:base+count*frameBytes]...)
	}
	return out
}

func gatherPackValues(vals []float64, sliceLen int, restCount int, start int, count int) []float64 {
	if count == sliceLen {
		return vals
	}

	out := make([]float64, 0, count*restCount)
	for r := 0; r < restCount; r++ {
		base := r*sliceLen + start
		out = append(out, vals[base:base+count]...)
	}
	return out
}
