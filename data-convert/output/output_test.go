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

package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/core/nifti"
	"github.com/pvconv/pvconv/data-convert/convertModels"
)

func testVolume() *convertModels.ImageVolume {
	data := make([]byte, 4*4*3*2)
	for i := range data {
		data[i] = byte(i % 251)
	}

	affine := mat.NewDense(4, 4, []float64{
		2, 0, 0, -8,
		0, 2, 0, -8,
		0, 0, 2, -1,
		0, 0, 0, 1,
	})

	return &convertModels.ImageVolume{
		Dims:     []int{4, 4, 3},
		Pixdim:   []float64{2, 2, 2},
		DimDesc:  []string{"slice"},
		DataType: convertModels.DataTypeInt16,
		Data:     data,
		Affine:   affine,
		SclSlope: 1.5,
		SclInter: -2,
		Meta: convertModels.AcqMeta{
			Protocol:        "T2_TurboRARE",
			ScanName:        "T2_TurboRARE (E5)",
			Method:          "Bruker:RARE",
			TRms:            []float64{2500},
			TEms:            []float64{33},
			FlipAngle:       90,
			Averages:        2,
			Repetitions:     1,
			FieldStrengthT:  9.4,
			SoftwareVersion: "6.0.1",
		},
	}
}

func TestSave(t *testing.T) {
	vol := testVolume()
	base := filepath.Join(t.TempDir(), "sub-01_T2w")
	saver := NiftiSaver{Version: "4.0.0"}

	outPath, err := saver.Save(vol, base, convertModels.Options{Sidecar: true}, &logger.NullLogger{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(outPath, "sub-01_T2w.nii"))

	hdr, data, err := nifti.ReadFile(outPath)
	require.NoError(t, err)

	assert.Equal(t, int16(3), hdr.Dim[0])
	assert.Equal(t, int16(4), hdr.Dim[1])
	assert.Equal(t, int16(4), hdr.Dim[2])
	assert.Equal(t, int16(3), hdr.Dim[3])
	assert.Equal(t, nifti.DTInt16, hdr.Datatype)
	assert.InDelta(t, 1.5, float64(hdr.SclSlope), 1e-6)
	assert.InDelta(t, -2.0, float64(hdr.SclInter), 1e-6)
	assert.Equal(t, "pvconv 4.0.0", hdr.GetDescrip())
	assert.Equal(t, vol.Data, data)

	assert.Equal(t, nifti.XFormScannerAnat, hdr.SformCode)
	assert.Equal(t, nifti.XFormScannerAnat, hdr.QformCode)
	assert.InDelta(t, 2.0, float64(hdr.SrowX[0]), 1e-6)
	assert.InDelta(t, -8.0, float64(hdr.SrowX[3]), 1e-6)
	assert.InDelta(t, -1.0, float64(hdr.SrowZ[3]), 1e-6)

	sidecarBytes, err := os.ReadFile(base + ".json")
	require.NoError(t, err)

	sidecar := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(sidecarBytes, &sidecar))

	assert.Equal(t, "Bruker", sidecar["Manufacturer"])
	assert.Equal(t, "T2_TurboRARE", sidecar["ProtocolName"])
	assert.Equal(t, "T2_TurboRARE (E5)", sidecar["SeriesDescription"])
	assert.Equal(t, "Bruker:RARE", sidecar["PulseSequenceType"])
	assert.InDelta(t, 2.5, sidecar["RepetitionTime"].(float64), 1e-9)
	assert.InDelta(t, 0.033, sidecar["EchoTime"].(float64), 1e-9)
	assert.InDelta(t, 90.0, sidecar["FlipAngle"].(float64), 1e-9)
	assert.Equal(t, "ParaVision 6.0.1", sidecar["SoftwareVersions"])
	assert.Equal(t, "pvconv", sidecar["ConversionSoftware"])
	assert.Equal(t, "4.0.0", sidecar["ConversionSoftwareVersion"])
}

func TestSaveCompressed(t *testing.T) {
	vol := testVolume()
	base := filepath.Join(t.TempDir(), "scan-3")

	outPath, err := NiftiSaver{}.Save(vol, base, convertModels.Options{Compress: true}, &logger.NullLogger{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(outPath, "scan-3.nii.gz"))

	hdr, data, err := nifti.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, int16(3), hdr.Dim[0])
	assert.Equal(t, vol.Data, data)

	// No sidecar asked for, none written
	_, err = os.Stat(base + ".json")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveBadDatatype(t *testing.T) {
	vol := testVolume()
	vol.DataType = convertModels.DataType(99)

	_, err := NiftiSaver{}.Save(vol, filepath.Join(t.TempDir(), "x"), convertModels.Options{}, &logger.NullLogger{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no NIfTI datatype")
}

func TestSidecarFields(t *testing.T) {
	meta := convertModels.AcqMeta{
		Protocol: "FLASH",
		Extra:    map[string]string{"Site": "lab-3", "ProtocolName": "Overridden"},
	}

	fields := SidecarFields(meta, "")

	assert.Equal(t, "Bruker", fields["Manufacturer"])
	assert.Equal(t, "lab-3", fields["Site"])
	// Extras win over collected values
	assert.Equal(t, "Overridden", fields["ProtocolName"])

	// Unset values don't produce keys
	_, hasTR := fields["RepetitionTime"]
	assert.False(t, hasTR)
	_, hasVersion := fields["ConversionSoftwareVersion"]
	assert.False(t, hasVersion)
	_, hasField := fields["MagneticFieldStrength"]
	assert.False(t, hasField)
}
