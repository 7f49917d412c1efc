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

package convertModels

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Converter code stores everything in these intermediate models, which are
// then understood by the output code that writes NIfTI files and sidecars

// DataType - voxel storage type of an image volume
type DataType int

const (
	DataTypeUint8 DataType = iota
	DataTypeInt16
	DataTypeInt32
	DataTypeFloat32
	DataTypeFloat64
)

// ByteSize - bytes per voxel
func (d DataType) ByteSize() int {
	switch d {
	case DataTypeUint8:
		return 1
	case DataTypeInt16:
		return 2
	case DataTypeInt32, DataTypeFloat32:
		return 4
	case DataTypeFloat64:
		return 8
	}
	return 0
}

func (d DataType) String() string {
	switch d {
	case DataTypeUint8:
		return "uint8"
	case DataTypeInt16:
		return "int16"
	case DataTypeInt32:
		return "int32"
	case DataTypeFloat32:
		return "float32"
	case DataTypeFloat64:
		return "float64"
	}
	return fmt.Sprintf("DataType(%v)", int(d))
}

// ScaleMode - what to do with the per-frame intensity scaling a
// reconstruction carries
type ScaleMode int

const (
	// ScaleModeHeader - store slope/offset in the output header, voxels stay raw
	ScaleModeHeader ScaleMode = iota
	// ScaleModeApply - bake slope/offset into a float32 voxel buffer
	ScaleModeApply
	// ScaleModeNone - raw voxels, scaling dropped
	ScaleModeNone
)

func (m ScaleMode) String() string {
	switch m {
	case ScaleModeHeader:
		return "header"
	case ScaleModeApply:
		return "apply"
	case ScaleModeNone:
		return "none"
	}
	return fmt.Sprintf("ScaleMode(%v)", int(m))
}

// ParseScaleMode - reads a scale mode name as passed on the command line
func ParseScaleMode(name string) (ScaleMode, error) {
	switch strings.ToLower(name) {
	case "header":
		return ScaleModeHeader, nil
	case "apply":
		return ScaleModeApply, nil
	case "none":
		return ScaleModeNone, nil
	}
	return ScaleModeHeader, errors.Errorf("invalid scale mode: %v", name)
}

// Options - conversion behaviour shared by the CLI and library callers
type Options struct {
	ScaleMode    ScaleMode
	OutDir       string
	Compress     bool              // write .nii.gz instead of .nii
	Sidecar      bool              // write a JSON sidecar next to each image
	Format       string            // force a converter by name, empty autodetects
	Plugin       string            // metadata filter to run before sidecars
	PluginConfig map[string]string // settings handed to the filter
}

// Selection - which scans and recos to convert. Empty means everything.
type Selection struct {
	Scans []int
	Recos []int
}

// WantScan - true when id is selected
func (s Selection) WantScan(id int) bool {
	return wantID(s.Scans, id)
}

// WantReco - true when id is selected
func (s Selection) WantReco(id int) bool {
	return wantID(s.Recos, id)
}

func wantID(ids []int, id int) bool {
	if len(ids) <= 0 {
		return true
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// AcqMeta - acquisition metadata carried through to sidecar files and the
// scan listing
type AcqMeta struct {
	Protocol        string
	ScanName        string
	Method          string // sequence, eg "Bruker:RARE"
	TRms            []float64
	TEms            []float64
	FlipAngle       float64
	EffBandwidthHz  float64
	Averages        int
	Repetitions     int
	FieldStrengthT  float64
	Operator        string
	Timestamp       string
	SoftwareVersion string
	SubjectID       string
	SubjectSex      string
	SubjectWeight   float64
	Species         string // subject type as recorded, eg "Quadruped"
	StudyName       string
	Extra           map[string]string // plugin supplied additions for the sidecar
}

// ImageVolume - one reconstructed volume ready to be written. Voxels are
// little endian, x varies fastest.
type ImageVolume struct {
	Dims    []int     // up to 6 entries: x, y, z, then frame group dims
	Pixdim  []float64 // mm for spatial dims, seconds for the 4th
	DimDesc []string  // meaning of each dim past the 2nd: slice, echo, cycle...

	DataType DataType
	Data     []byte

	// Voxel index to RAS mm. Nil when the reconstruction had no geometry.
	Affine *mat.Dense

	// Intensity scaling for the output header. Slope 0 means none.
	SclSlope float64
	SclInter float64

	// Scaling as read from the reconstruction, one entry per frame. Kept
	// even after baking so plugins can inspect it.
	FrameSlopes  []float64
	FrameOffsets []float64

	// Which slice pack this volume is, for recos that split into several
	SlicePack      int
	SlicePackCount int

	Meta AcqMeta
}

// VoxelCount - product of all dims
func (v *ImageVolume) VoxelCount() int {
	count := 1
	for _, d := range v.Dims {
		count *= d
	}
	return count
}

// ToString - for tests
func (v *ImageVolume) ToString() string {
	dims := []string{}
	for _, d := range v.Dims {
		dims = append(dims, fmt.Sprintf("%v", d))
	}
	return fmt.Sprintf("%v [%v] %v bytes", v.DataType, strings.Join(dims, "x"), len(v.Data))
}

// ConvertResult - one written output image
type ConvertResult struct {
	ScanID  int
	RecoID  int
	Suffix  string // eg "_pack-2" when a reco split into multiple volumes
	OutPath string
	Volume  *ImageVolume
}
