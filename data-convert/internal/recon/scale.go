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
	"encoding/binary"
	"math"

	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/data-convert/convertModels"
)

// normalizeFrameValues pads a slope/offset array out to one value per frame.
// Files write a single value when all frames scale the same.
func normalizeFrameValues(vals []float64, frameCount int, def float64) []float64 {
	out := make([]float64, frameCount)
	for i := range out {
		switch {
		case len(vals) <= 0:
			out[i] = def
		case i < len(vals):
			out[i] = vals[i]
		default:
			out[i] = vals[len(vals)-1]
		}
	}
	return out
}

func uniformValues(vals []float64) bool {
	for _, v := range vals {
		if v != vals[0] {
			return false
		}
	}
	return true
}

// applyScaling resolves the frame scaling of a volume according to mode.
// Header mode falls back to baking when frames scale differently, a single
// header slope can't represent that.
func applyScaling(vol *convertModels.ImageVolume, mode convertModels.ScaleMode, frameVoxels int, log logger.ILogger) {
	switch mode {
	case convertModels.ScaleModeNone:
		vol.SclSlope = 0
		vol.SclInter = 0
		return

	case convertModels.ScaleModeHeader:
		if uniformValues(vol.FrameSlopes) && uniformValues(vol.FrameOffsets) {
			vol.SclSlope = 1
			vol.SclInter = 0
			if len(vol.FrameSlopes) > 0 {
				vol.SclSlope = vol.FrameSlopes[0]
			}
			if len(vol.FrameOffsets) > 0 {
				vol.SclInter = vol.FrameOffsets[0]
			}
			return
		}
		log.Infof("Frame scaling varies within the volume, baking values into float32 voxels")
	}

	bakeScaling(vol, frameVoxels)
}

// bakeScaling converts the voxel buffer to float32 with each frame's slope
// and offset applied
func bakeScaling(vol *convertModels.ImageVolume, frameVoxels int) {
	wordBytes := vol.DataType.ByteSize()
	voxels := len(vol.Data) / wordBytes

	out := make([]byte, voxels*4)
	for i := 0; i < voxels; i++ {
		slope, offset := 1.0, 0.0
		if frameVoxels > 0 {
			frame := i / frameVoxels
			if frame < len(vol.FrameSlopes) {
				slope = vol.FrameSlopes[frame]
			}
			if frame < len(vol.FrameOffsets) {
				offset = vol.FrameOffsets[frame]
			}
		}

		v := decodeVoxel(vol.Data, i, vol.DataType)*slope + offset
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
	}

	vol.Data = out
	vol.DataType = convertModels.DataTypeFloat32
	vol.SclSlope = 0
	vol.SclInter = 0
}

func decodeVoxel(data []byte, index int, dataType convertModels.DataType) float64 {
	switch dataType {
	case convertModels.DataTypeUint8:
		return float64(data[index])
	case convertModels.DataTypeInt16:
		return float64(int16(binary.LittleEndian.Uint16(data[index*2:])))
	case convertModels.DataTypeInt32:
		return float64(int32(binary.LittleEndian.Uint32(data[index*4:])))
	case convertModels.DataTypeFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[index*4:])))
	case convertModels.DataTypeFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(data[index*8:]))
	}
	return 0
}
