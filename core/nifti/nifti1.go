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

// NIfTI-1 single-file (.nii / .nii.gz) reading and writing. Header layout
// follows the nifti1.h standard: 348 byte header, 4 pad bytes, then voxels
// at offset 352.
package nifti

import "fmt"

const (
	// HeaderSize - fixed NIfTI-1 header size
	HeaderSize = 348

	// VoxOffset - where voxel data starts in a single .nii file
	VoxOffset = 352
)

// Datatype codes from nifti1.h, only the ones a 2dseq can carry plus
// float64 for derived images
const (
	DTUint8   int16 = 2
	DTInt16   int16 = 4
	DTInt32   int16 = 8
	DTFloat32 int16 = 16
	DTFloat64 int16 = 64
)

// xyzt_units flags. Space in mm and time in seconds is all we ever write.
const (
	UnitsMM  byte = 2
	UnitsSec byte = 8
)

// Qform/sform transform meaning: aligned to scanner coordinates
const XFormScannerAnat int16 = 1

var magicSingleFile = [4]byte{'n', '+', '1', 0}
var magicHeaderPair = [4]byte{'n', 'i', '1', 0}

// Header - the NIfTI-1 header, field for field. Written little endian,
// reads detect byte order from dim[0].
type Header struct {
	SizeOfHdr    int32
	DataTypeName [10]byte // unused legacy ANALYZE field
	DbName       [18]byte
	Extents      int32
	SessionError int16
	Regular      byte
	DimInfo      byte

	Dim        [8]int16
	IntentP1   float32
	IntentP2   float32
	IntentP3   float32
	IntentCode int16

	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XyztUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32

	Descrip [80]byte
	AuxFile [24]byte

	QformCode int16
	SformCode int16
	QuaternB  float32
	QuaternC  float32
	QuaternD  float32
	QoffsetX  float32
	QoffsetY  float32
	QoffsetZ  float32
	SrowX     [4]float32
	SrowY     [4]float32
	SrowZ     [4]float32

	IntentName [16]byte
	Magic      [4]byte
}

// BitpixForDatatype - bits per voxel for the datatypes we support
func BitpixForDatatype(datatype int16) (int16, error) {
	switch datatype {
	case DTUint8:
		return 8, nil
	case DTInt16:
		return 16, nil
	case DTInt32:
		return 32, nil
	case DTFloat32:
		return 32, nil
	case DTFloat64:
		return 64, nil
	}
	return 0, fmt.Errorf("unsupported NIfTI datatype code: %v", datatype)
}

// NewHeader - builds a header for the given image dimensions. dims holds
// the used sizes only (2..7 entries), pixdims match dims and carry mm for
// the first 3 and seconds for the 4th.
func NewHeader(dims []int, datatype int16, pixdims []float64) (*Header, error) {
	if len(dims) < 1 || len(dims) > 7 {
		return nil, fmt.Errorf("invalid dimension count: %v", len(dims))
	}

	bitpix, err := BitpixForDatatype(datatype)
	if err != nil {
		return nil, err
	}

	hdr := &Header{
		SizeOfHdr: HeaderSize,
		Regular:   'r',
		Datatype:  datatype,
		Bitpix:    bitpix,
		VoxOffset: VoxOffset,
		XyztUnits: UnitsMM | UnitsSec,
		Magic:     magicSingleFile,
	}

	hdr.Dim[0] = int16(len(dims))
	for i := range hdr.Dim {
		if i > 0 {
			hdr.Dim[i] = 1
		}
	}
	for i, d := range dims {
		if d < 1 {
			return nil, fmt.Errorf("invalid size for dim %v: %v", i+1, d)
		}
		hdr.Dim[i+1] = int16(d)
	}

	// pixdim[0] is qfac, stays 1 until a qform says otherwise
	hdr.Pixdim[0] = 1
	for i := range pixdims {
		if i < len(dims) {
			hdr.Pixdim[i+1] = float32(pixdims[i])
		}
	}

	return hdr, nil
}

// SetDescrip - the free text field, truncated to its 79 chars + NUL
func (hdr *Header) SetDescrip(descrip string) {
	for i := range hdr.Descrip {
		hdr.Descrip[i] = 0
	}
	if len(descrip) > len(hdr.Descrip)-1 {
		descrip = descrip[:len(hdr.Descrip)-1]
	}
	copy(hdr.Descrip[:], descrip)
}

// GetDescrip - reads the free text field back
func (hdr *Header) GetDescrip() string {
	end := 0
	for end < len(hdr.Descrip) && hdr.Descrip[end] != 0 {
		end++
	}
	return string(hdr.Descrip[:end])
}

// DataSize - voxel payload size in bytes the dims demand
func (hdr *Header) DataSize() int {
	if hdr.Dim[0] < 1 || hdr.Dim[0] > 7 {
		return 0
	}
	size := int(hdr.Bitpix) / 8
	for i := int16(1); i <= hdr.Dim[0]; i++ {
		size *= int(hdr.Dim[i])
	}
	return size
}

// IsValidMagic - accepts single file and header pair markers
func (hdr *Header) IsValidMagic() bool {
	return hdr.Magic == magicSingleFile || hdr.Magic == magicHeaderPair
}
