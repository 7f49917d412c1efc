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

package nifti

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// Write - emits header, pad and voxels. Little endian always, which the
// header advertises through its own byte order on read back.
func Write(w io.Writer, hdr *Header, data []byte) error {
	if hdr.SizeOfHdr != HeaderSize {
		return fmt.Errorf("header sizeof_hdr must be %v, got %v", HeaderSize, hdr.SizeOfHdr)
	}
	if !hdr.IsValidMagic() {
		return fmt.Errorf("header magic not set")
	}

	expected := hdr.DataSize()
	if expected <= 0 {
		return fmt.Errorf("header dims invalid: %v", hdr.Dim)
	}
	if expected != len(data) {
		return fmt.Errorf("voxel payload is %v bytes, header dims demand %v", len(data), expected)
	}

	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return err
	}

	// Extension flag, all zero = no extensions
	if _, err := w.Write([]byte{0, 0, 0, 0}); err != nil {
		return err
	}

	_, err := w.Write(data)
	return err
}

// WriteFile - writes a single .nii, gzipped when the name says so
func WriteFile(path string, hdr *Header, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(f)
		if err := Write(gz, hdr, data); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	}

	return Write(f, hdr, data)
}

// ReadHeader - decodes a header, detecting byte order through dim[0]
// which must land in 1..7 for one of the two orders
func ReadHeader(r io.Reader) (*Header, binary.ByteOrder, error) {
	raw := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, err
	}

	var order binary.ByteOrder = binary.LittleEndian
	dim0 := order.Uint16(raw[40:42])
	if dim0 < 1 || dim0 > 7 {
		order = binary.BigEndian
		dim0 = order.Uint16(raw[40:42])
		if dim0 < 1 || dim0 > 7 {
			return nil, nil, fmt.Errorf("not a NIfTI-1 header, dim[0] invalid in both byte orders")
		}
	}

	hdr := &Header{}
	if err := binary.Read(bytes.NewReader(raw), order, hdr); err != nil {
		return nil, nil, err
	}

	if !hdr.IsValidMagic() {
		return nil, nil, fmt.Errorf("bad NIfTI magic: %v", hdr.Magic)
	}

	return hdr, order, nil
}

// ReadFile - reads a whole single-file image back, voxels included.
// Mainly here so conversions can be verified after writing.
func ReadFile(path string) (*Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		defer gz.Close()
		r = gz
	}

	hdr, _, err := ReadHeader(r)
	if err != nil {
		return nil, nil, err
	}

	// Skip to vox_offset. We only write 352 but someone else's file may
	// carry extensions.
	skip := int64(hdr.VoxOffset) - HeaderSize
	if skip < 0 {
		return nil, nil, fmt.Errorf("vox_offset %v overlaps header", hdr.VoxOffset)
	}
	if skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, nil, err
		}
	}

	data := make([]byte, hdr.DataSize())
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, nil, err
	}

	return hdr, data, nil
}
