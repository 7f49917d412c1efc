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

	"github.com/pkg/errors"
	"github.com/pvconv/pvconv/core/jcampdx"
	"github.com/pvconv/pvconv/data-convert/convertModels"
)

// Word types 2dseq voxels are stored in, keyed by VisuCoreWordType
var wordTypes = map[string]convertModels.DataType{
	"_8BIT_UNSGN_INT": convertModels.DataTypeUint8,
	"_16BIT_SGN_INT":  convertModels.DataTypeInt16,
	"_32BIT_SGN_INT":  convertModels.DataTypeInt32,
	"_32BIT_FLOAT":    convertModels.DataTypeFloat32,
}

func dataTypeOf(visu *jcampdx.Params) (convertModels.DataType, error) {
	wordType, ok := visu.GetString("VisuCoreWordType")
	if !ok {
		// Old datasets don't always write it, 16 bit signed was the default
		return convertModels.DataTypeInt16, nil
	}

	dataType, ok := wordTypes[wordType]
	if !ok {
		return 0, errors.Errorf("unsupported word type: %v", wordType)
	}
	return dataType, nil
}

func byteOrderOf(visu *jcampdx.Params) (binary.ByteOrder, error) {
	order, ok := visu.GetString("VisuCoreByteOrder")
	if !ok {
		return binary.LittleEndian, nil
	}

	switch order {
	case "littleEndian":
		return binary.LittleEndian, nil
	case "bigEndian":
		return binary.BigEndian, nil
	}
	return nil, errors.Errorf("unsupported byte order: %v", order)
}

// swapToLittleEndian reverses the bytes of every word in place. Used for old
// PowerPC console data, everything since is already little endian.
func swapToLittleEndian(data []byte, wordBytes int) {
	if wordBytes <= 1 {
		return
	}

	for i := 0; i+wordBytes <= len(data); i += wordBytes {
		for a, b := i, i+wordBytes-1; a < b; a, b = a+1, b-1 {
			data[a], data[b] = data[b], data[a]
		}
	}
}
