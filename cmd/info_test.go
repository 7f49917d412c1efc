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

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/pvdataset"
)

const subjectFixture = `##TITLE=Parameter List, ParaVision 6.0.1
##OWNER=nmrsu
##$SUBJECT_id=( 60 )
<mouse01>
##$SUBJECT_study_name=( 64 )
<lab_mouse>
##$SUBJECT_weight=0.0254
##$SUBJECT_sex=MALE
##$SUBJECT_date=<2020-02-21T09:43:22>
##END=
`

const acqpFixture = `##TITLE=Parameter List, ParaVision 6.0.1
##$ACQ_protocol_name=( 64 )
<T2_TurboRARE>
##$ACQ_method=( 40 )
<Bruker:RARE>
##$ACQ_repetition_time=( 1 )
2500
##$ACQ_echo_time=( 1 )
33
##$ACQ_flip_angle=90
##$SW_h=34722.2222222222
##END=
`

const visuFixture = `##TITLE=Parameter List, ParaVision 6.0.1
##$VisuCoreFrameCount=3
##$VisuCoreDim=2
##$VisuCoreSize=( 2 )
4 4
##$VisuCoreExtent=( 2 )
16 16
##$VisuCoreFrameThickness=1
##$VisuCoreWordType=_16BIT_SGN_INT
##$VisuFGOrderDesc=( 1 )
(3, <FG_SLICE>, <>, 0, 1)
##END=
`

func TestPrintStudyInfo(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "subject"), []byte(subjectFixture), 0666))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "3", "pdata", "1"), 0777))
	require.NoError(t, os.WriteFile(filepath.Join(root, "3", "acqp"), []byte(acqpFixture), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(root, "3", "pdata", "1", "visu_pars"), []byte(visuFixture), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(root, "3", "pdata", "1", "2dseq"), make([]byte, 4*4*3*2), 0666))

	ds, err := pvdataset.Open(root, &logger.NullLogger{})
	require.NoError(t, err)
	defer ds.Close()

	out := &strings.Builder{}
	printStudyInfo(out, ds, nil)
	text := out.String()

	assert.Contains(t, text, "ParaVision 6.0.1\n----------------")
	assert.Contains(t, text, "SubjectID   : mouse01")
	// kg stored by PV6, shown in grams
	assert.Contains(t, text, "Weight      : 25.40 g")
	assert.Contains(t, text, "[03]   T2_TurboRARE :: Bruker:RARE ::")
	assert.Contains(t, text, "[ TR: 2500.00 ms, TE: 33.00 ms, FlipAngle: 90 degree, EffBW: 34722.22 Hz ]")
	assert.Contains(t, text, "[01] MatrixSize: 4 x 4, Resolution: 4.000 x 4.000 (mm), NumSlices: 3")
	assert.Contains(t, text, "dimDescription: Slice")
}

func TestPrintStudyInfoScanFilter(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "subject"), []byte(subjectFixture), 0666))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "3"), 0777))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "4"), 0777))
	require.NoError(t, os.WriteFile(filepath.Join(root, "3", "acqp"), []byte(acqpFixture), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(root, "4", "acqp"), []byte(acqpFixture), 0666))

	ds, err := pvdataset.Open(root, &logger.NullLogger{})
	require.NoError(t, err)
	defer ds.Close()

	out := &strings.Builder{}
	printStudyInfo(out, ds, []int{4})
	text := out.String()

	assert.NotContains(t, text, "[03]")
	assert.Contains(t, text, "[04]")
}

func TestFormatWeight(t *testing.T) {
	assert.Equal(t, "25.40 g", formatWeight(0.0254, "6.0.1"))
	assert.Equal(t, "25.40 g", formatWeight(25.4, "5.1"))
	assert.Equal(t, "30.00 g", formatWeight(0.03, "360.3.4"))
	assert.Equal(t, "", formatWeight(0, "6.0.1"))
}
