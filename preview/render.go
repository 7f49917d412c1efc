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

// Package preview renders reconstructed volumes to PNG for a quick look
// without a neuroimaging viewer: single axial slices, or all slices tiled
// into a near-square mosaic. Intensity is windowed over the whole volume so
// tiles are comparable.
package preview

import (
	"encoding/binary"
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/pvconv/pvconv/core/utils"
	"github.com/pvconv/pvconv/data-convert/convertModels"
)

// Options controls mosaic rendering
type Options struct {
	// TileWidth scales each slice to this many pixels across, 0 keeps the
	// native matrix size
	TileWidth int

	// Volume index for 4D+ data, 0 renders the first
	Frame int
}

// RenderSlice renders one slice of the volume as 16 bit grayscale
func RenderSlice(vol *convertModels.ImageVolume, sliceIdx int, frame int) (image.Image, error) {
	w, h, nSlices, err := sliceDims(vol)
	if err != nil {
		return nil, err
	}
	if sliceIdx < 0 || sliceIdx >= nSlices {
		return nil, errors.Errorf("slice %v out of range, volume has %v", sliceIdx, nSlices)
	}

	lo, hi := intensityWindow(vol)
	return renderSliceWindowed(vol, sliceIdx, frame, w, h, lo, hi)
}

// RenderMosaic tiles every slice of the volume into a near-square grid
func RenderMosaic(vol *convertModels.ImageVolume, opts Options) (image.Image, error) {
	w, h, nSlices, err := sliceDims(vol)
	if err != nil {
		return nil, err
	}

	lo, hi := intensityWindow(vol)

	tileW, tileH := w, h
	if opts.TileWidth > 0 {
		tileW = opts.TileWidth
		tileH = int(float32(h) / float32(w) * float32(tileW))
	}

	cols := int(math.Ceil(math.Sqrt(float64(nSlices))))
	rows := (nSlices + cols - 1) / cols

	mosaic := image.NewGray16(image.Rect(0, 0, cols*tileW, rows*tileH))

	for s := 0; s < nSlices; s++ {
		tile, err := renderSliceWindowed(vol, s, opts.Frame, w, h, lo, hi)
		if err != nil {
			return nil, err
		}

		dst := image.Rect((s%cols)*tileW, (s/cols)*tileH, (s%cols+1)*tileW, (s/cols+1)*tileH)
		if tileW == w && tileH == h {
			draw.Copy(mosaic, dst.Min, tile, tile.Bounds(), draw.Src, nil)
		} else {
			draw.ApproxBiLinear.Scale(mosaic, dst, tile, tile.Bounds(), draw.Src, nil)
		}
	}

	return mosaic, nil
}

// SavePNG writes the rendered image, appending .png if missing
func SavePNG(img image.Image, path string) error {
	return utils.WritePNGImageFile(path, img)
}

func sliceDims(vol *convertModels.ImageVolume) (int, int, int, error) {
	if len(vol.Dims) < 2 || vol.Dims[0] <= 0 || vol.Dims[1] <= 0 {
		return 0, 0, 0, errors.Errorf("volume has no renderable in-plane dims: %v", vol.Dims)
	}

	nSlices := 1
	if len(vol.Dims) >= 3 {
		nSlices = vol.Dims[2]
	}
	return vol.Dims[0], vol.Dims[1], nSlices, nil
}

func renderSliceWindowed(vol *convertModels.ImageVolume, sliceIdx int, frame int, w int, h int, lo float64, hi float64) (*image.Gray16, error) {
	img := image.NewGray16(image.Rect(0, 0, w, h))

	span := hi - lo
	if span <= 0 {
		span = 1
	}

	sliceVoxels := w * h
	base := (frame*numSlicesTotal(vol) + sliceIdx) * sliceVoxels
	if (base+sliceVoxels)*vol.DataType.ByteSize() > len(vol.Data) {
		return nil, errors.Errorf("slice %v frame %v is past the end of the voxel buffer", sliceIdx, frame)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := voxelValue(vol, base+y*w+x)
			level := (v - lo) / span
			gray := uint16(math.Max(0, math.Min(65535, level*65535)))
			img.SetGray16(x, y, color.Gray16{Y: gray})
		}
	}
	return img, nil
}

func numSlicesTotal(vol *convertModels.ImageVolume) int {
	if len(vol.Dims) >= 3 {
		return vol.Dims[2]
	}
	return 1
}

// intensityWindow finds the value range of the whole volume, with the
// stored scaling applied so windows survive a scale mode change
func intensityWindow(vol *convertModels.ImageVolume) (float64, float64) {
	lo := math.Inf(1)
	hi := math.Inf(-1)

	count := vol.VoxelCount()
	for i := 0; i < count; i++ {
		v := voxelValue(vol, i)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

// voxelValue reads voxel i with header scaling applied. Volumes are little
// endian after reconstruction.
func voxelValue(vol *convertModels.ImageVolume, i int) float64 {
	data := vol.Data
	var raw float64

	switch vol.DataType {
	case convertModels.DataTypeUint8:
		raw = float64(data[i])
	case convertModels.DataTypeInt16:
		raw = float64(int16(binary.LittleEndian.Uint16(data[i*2:])))
	case convertModels.DataTypeInt32:
		raw = float64(int32(binary.LittleEndian.Uint32(data[i*4:])))
	case convertModels.DataTypeFloat32:
		raw = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	case convertModels.DataTypeFloat64:
		raw = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}

	if vol.SclSlope != 0 {
		return raw*vol.SclSlope + vol.SclInter
	}
	return raw
}
