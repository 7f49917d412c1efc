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

package dataConvert

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/core/nifti"
	"github.com/pvconv/pvconv/data-convert/convertModels"
	"github.com/pvconv/pvconv/data-convert/converter"
)

const subjectFixture = `##TITLE=Parameter List, ParaVision 6.0.1
##JCAMPDX=4.24
##OWNER=nmrsu
##$SUBJECT_id=( 60 )
<mouse01>
##$SUBJECT_study_name=( 64 )
<lab_mouse>
##END=
`

const acqpFixture = `##TITLE=Parameter List, ParaVision 6.0.1
##JCAMPDX=4.24
##$ACQ_protocol_name=( 64 )
<T2_TurboRARE>
##$ACQ_method=( 40 )
<Bruker:RARE>
##$ACQ_repetition_time=( 1 )
2500
##$ACQ_echo_time=( 1 )
33
##END=
`

const visuFixture = `##TITLE=Parameter List, ParaVision 6.0.1
##JCAMPDX=4.24
##$VisuVersion=3
##$VisuCoreFrameCount=3
##$VisuCoreDim=2
##$VisuCoreSize=( 2 )
4 4
##$VisuCoreExtent=( 2 )
16 16
##$VisuCoreFrameThickness=1
##$VisuCoreWordType=_16BIT_SGN_INT
##$VisuFGOrderDescDim=1
##$VisuFGOrderDesc=( 1 )
(3, <FG_SLICE>, <>, 0, 1)
##$VisuCreatorVersion=( 65 )
<6.0.1>
##END=
`

func writeStudy(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"subject":             subjectFixture,
		"5/acqp":              acqpFixture,
		"5/pdata/1/visu_pars": visuFixture,
	}
	for relPath, content := range files {
		path := filepath.Join(root, filepath.FromSlash(relPath))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0777))
		require.NoError(t, os.WriteFile(path, []byte(content), 0666))
	}

	dataPath := filepath.Join(root, "5", "pdata", "1", "2dseq")
	require.NoError(t, os.WriteFile(dataPath, make([]byte, 4*4*3*2), 0666))
	return root
}

func TestConvertPath(t *testing.T) {
	root := writeStudy(t)
	outDir := filepath.Join(t.TempDir(), "out")

	opts := convertModels.Options{OutDir: outDir, Sidecar: true}
	results, err := ConvertPath(root, convertModels.Selection{}, opts, &logger.NullLogger{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, filepath.Join(outDir, "lab_mouse-5-1-T2_TurboRARE.nii"), res.OutPath)

	hdr, data, err := nifti.ReadFile(res.OutPath)
	require.NoError(t, err)
	assert.Equal(t, int16(3), hdr.Dim[0])
	assert.Equal(t, int16(4), hdr.Dim[1])
	assert.Len(t, data, 4*4*3*2)

	sidecarBytes, err := os.ReadFile(filepath.Join(outDir, "lab_mouse-5-1-T2_TurboRARE.json"))
	require.NoError(t, err)

	sidecar := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(sidecarBytes, &sidecar))
	assert.Equal(t, "T2_TurboRARE", sidecar["ProtocolName"])
	assert.Equal(t, ToolVersion, sidecar["ConversionSoftwareVersion"])
}

func TestConvertPathCompressed(t *testing.T) {
	root := writeStudy(t)
	outDir := t.TempDir()

	opts := convertModels.Options{OutDir: outDir, Compress: true}
	results, err := ConvertPath(root, convertModels.Selection{}, opts, &logger.NullLogger{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, filepath.Join(outDir, "lab_mouse-5-1-T2_TurboRARE.nii.gz"), results[0].OutPath)
	_, _, err = nifti.ReadFile(results[0].OutPath)
	assert.NoError(t, err)
}

func TestConvertPathUnknownFormat(t *testing.T) {
	root := writeStudy(t)

	opts := convertModels.Options{OutDir: t.TempDir(), Format: "dicom"}
	_, err := ConvertPath(root, convertModels.Selection{}, opts, &logger.NullLogger{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown converter dicom")
}

func TestConvertPathWithPlugin(t *testing.T) {
	converter.RegisterMetaFilter("site-stamp", func(meta *convertModels.AcqMeta, config map[string]string) error {
		if meta.Extra == nil {
			meta.Extra = map[string]string{}
		}
		meta.Extra["InstitutionName"] = config["site"]
		return nil
	})

	root := writeStudy(t)
	outDir := t.TempDir()

	opts := convertModels.Options{
		OutDir:       outDir,
		Sidecar:      true,
		Plugin:       "site-stamp",
		PluginConfig: map[string]string{"site": "NeuroLab"},
	}
	results, err := ConvertPath(root, convertModels.Selection{}, opts, &logger.NullLogger{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	sidecarBytes, err := os.ReadFile(filepath.Join(outDir, "lab_mouse-5-1-T2_TurboRARE.json"))
	require.NoError(t, err)

	sidecar := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(sidecarBytes, &sidecar))
	assert.Equal(t, "NeuroLab", sidecar["InstitutionName"])

	// Unknown filter names fail the conversion
	opts.Plugin = "no-such"
	_, err = ConvertPath(root, convertModels.Selection{}, opts, &logger.NullLogger{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown metadata filter")
}

func TestOutputName(t *testing.T) {
	res := &convertModels.ConvertResult{
		ScanID: 5,
		RecoID: 1,
		Suffix: "_pack-2",
		Volume: &convertModels.ImageVolume{
			Meta: convertModels.AcqMeta{
				StudyName: "lab mouse",
				Protocol:  "T2 RARE/axial",
			},
		},
	}

	assert.Equal(t, "lab_mouse-5-1-T2_RARE_axial_pack-2", OutputName(res))
}
