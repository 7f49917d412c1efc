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

package pvdataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/core/utils"
)

const subjectFixture = `##TITLE=Parameter List, ParaVision 6.0.1
##JCAMPDX=4.24
##DATATYPE=Parameter Values
##OWNER=nmrsu
$$ /opt/PV6.0.1/data/nmrsu/20200221_094322_lab_mouse_1_1/subject
##$SUBJECT_id=( 60 )
<mouse01>
##$SUBJECT_name_string=( 64 )
<C57BL6_04>
##$SUBJECT_study_name=( 64 )
<lab_mouse>
##$SUBJECT_study_nr=1
##$SUBJECT_weight=0.0254
##$SUBJECT_sex=MALE
##$SUBJECT_dbirth=( 12 )
<20191120>
##$SUBJECT_type=Quadruped
##$SUBJECT_entry=SUBJECT_ENTRY_HeadFirst
##$SUBJECT_position=SUBJECT_POS_Supine
##$SUBJECT_date=<2020-02-21T09:43:22,093+0100>
##END=
`

const acqpFixture = `##TITLE=Parameter List, ParaVision 6.0.1
##JCAMPDX=4.24
##OWNER=nmrsu
##$ACQ_protocol_name=( 64 )
<T2_TurboRARE>
##$ACQ_scan_name=( 64 )
<T2_TurboRARE (E5)>
##$ACQ_method=( 40 )
<Bruker:RARE>
##$ACQ_repetition_time=( 1 )
2500
##$ACQ_echo_time=( 1 )
33
##$ACQ_flip_angle=90
##$ACQ_n_echo_images=1
##$SW_h=34722.2222222222
##$NA=2
##$NR=1
##$BF1=400.31524243
##$ACQ_time=<2020-02-21T09:48:02,093+0100>
##$ACQ_operator=( 16 )
<nmrsu>
##END=
`

const methodFixture = `##TITLE=Parameter List, ParaVision 6.0.1
##JCAMPDX=4.24
##$Method=<Bruker:RARE>
##$PVM_RareFactor=8
##$PVM_RepetitionTime=2500
##$PVM_EchoTime=33
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
##$VisuCoreByteOrder=littleEndian
##$VisuCoreDataSlope=( 3 )
1 1 1
##$VisuCoreDataOffs=( 3 )
0 0 0
##$VisuCreatorVersion=( 65 )
<6.0.1>
##END=
`

// 4x4 pixels, 3 frames, 2 bytes each
const fixtureFrameBytes = 4 * 4 * 3 * 2

func writeFixtureFile(t *testing.T, root string, relPath string, content []byte) {
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0777))
	require.NoError(t, os.WriteFile(path, content, 0666))
}

func writeStudyFixture(t *testing.T, root string) {
	writeFixtureFile(t, root, "subject", []byte(subjectFixture))
	writeFixtureFile(t, root, "3/acqp", []byte(acqpFixture))
	writeFixtureFile(t, root, "3/method", []byte(methodFixture))
	writeFixtureFile(t, root, "3/pdata/1/visu_pars", []byte(visuFixture))
	writeFixtureFile(t, root, "3/pdata/1/2dseq", make([]byte, fixtureFrameBytes))

	// A fid-only scan, acquisition ran but was never reconstructed
	writeFixtureFile(t, root, "5/acqp", []byte(acqpFixture))
	writeFixtureFile(t, root, "5/fid", []byte("rawdata"))

	// Non-scan entries that sit alongside scan directories in real studies
	writeFixtureFile(t, root, "AdjResult/AdjProtocols", []byte("x"))
	writeFixtureFile(t, root, "ResultState", []byte("x"))
}

func TestOpenDirectory(t *testing.T) {
	root := t.TempDir()
	writeStudyFixture(t, root)

	ds, err := Open(root, &logger.NullLogger{})
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, []int{3, 5}, ds.ScanIDs())
	require.NotNil(t, ds.Subject())
	assert.Equal(t, "6.0.1", ds.Version())
	assert.Equal(t, "lab_mouse", ds.Name())

	scan, err := ds.Scan(3)
	require.NoError(t, err)
	protocol, ok := scan.Acqp().GetString("ACQ_protocol_name")
	require.True(t, ok)
	assert.Equal(t, "T2_TurboRARE", protocol)
	require.NotNil(t, scan.Method())
	assert.Equal(t, []int{1}, scan.RecoIDs())

	reco, err := scan.Reco(1)
	require.NoError(t, err)
	wordType, ok := reco.VisuPars().GetString("VisuCoreWordType")
	require.True(t, ok)
	assert.Equal(t, "_16BIT_SGN_INT", wordType)

	frames, err := reco.ReadFrames()
	require.NoError(t, err)
	assert.Len(t, frames, fixtureFrameBytes)

	// fid-only scan is listed but has no recos
	fidScan, err := ds.Scan(5)
	require.NoError(t, err)
	assert.Empty(t, fidScan.RecoIDs())
	_, err = fidScan.Reco(1)
	require.Error(t, err)

	_, err = ds.Scan(99)
	require.Error(t, err)
}

func TestOpenLogsRepeatedKeys(t *testing.T) {
	root := t.TempDir()
	writeStudyFixture(t, root)

	// PV sometimes writes a key twice, the later value is the live one
	acqp := "##TITLE=Parameter List, ParaVision 6.0.1\n" +
		"##JCAMPDX=4.24\n" +
		"##$ACQ_protocol_name=( 64 )\n<first>\n" +
		"##$ACQ_protocol_name=( 64 )\n<second>\n" +
		"##END=\n"
	writeFixtureFile(t, root, "7/acqp", []byte(acqp))

	rec := &logger.LogRecorder{}
	ds, err := Open(root, rec)
	require.NoError(t, err)
	defer ds.Close()

	scan, err := ds.Scan(7)
	require.NoError(t, err)
	name, ok := scan.Acqp().GetString("ACQ_protocol_name")
	require.True(t, ok)
	assert.Equal(t, "second", name)

	found := false
	for _, line := range rec.Lines {
		if strings.Contains(line, "7/acqp") && strings.Contains(line, "repeated parameter") {
			found = true
		}
	}
	assert.True(t, found, "expected a repeated key log line, got %v", rec.Lines)
}

func TestOpenZip(t *testing.T) {
	// Study nested under a single top level folder, the usual export shape
	parent := t.TempDir()
	root := filepath.Join(parent, "20200221_094322_lab_mouse_1_1")
	writeStudyFixture(t, root)

	zipped, err := utils.ZipDirectoryTree(parent)
	require.NoError(t, err)

	zipPath := filepath.Join(t.TempDir(), "study.PvDatasets")
	require.NoError(t, os.WriteFile(zipPath, zipped, 0666))

	ds, err := Open(zipPath, &logger.NullLogger{})
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, []int{3, 5}, ds.ScanIDs())
	scan, err := ds.Scan(3)
	require.NoError(t, err)
	reco, err := scan.Reco(1)
	require.NoError(t, err)
	frames, err := reco.ReadFrames()
	require.NoError(t, err)
	assert.Len(t, frames, fixtureFrameBytes)

	// Flat archive with study files at the root works the same
	flat, err := utils.ZipDirectoryTree(root)
	require.NoError(t, err)
	flatPath := filepath.Join(t.TempDir(), "flat.zip")
	require.NoError(t, os.WriteFile(flatPath, flat, 0666))

	flatDS, err := Open(flatPath, &logger.NullLogger{})
	require.NoError(t, err)
	defer flatDS.Close()

	assert.Equal(t, []int{3, 5}, flatDS.ScanIDs())
	assert.Equal(t, "lab_mouse", flatDS.Name())
}

func TestOpenFiles(t *testing.T) {
	dir := t.TempDir()
	visuPath := filepath.Join(dir, "visu_pars")
	dataPath := filepath.Join(dir, "2dseq")
	require.NoError(t, os.WriteFile(visuPath, []byte(visuFixture), 0666))
	require.NoError(t, os.WriteFile(dataPath, make([]byte, fixtureFrameBytes), 0666))

	ds, err := OpenFiles(&logger.NullLogger{}, visuPath, dataPath)
	require.NoError(t, err)
	defer ds.Close()

	assert.Nil(t, ds.Subject())
	assert.Equal(t, []int{1}, ds.ScanIDs())
	assert.Equal(t, "6.0.1", ds.Version())

	scan, err := ds.Scan(1)
	require.NoError(t, err)
	assert.Nil(t, scan.Acqp())

	reco, err := scan.Reco(1)
	require.NoError(t, err)
	frames, err := reco.ReadFrames()
	require.NoError(t, err)
	assert.Len(t, frames, fixtureFrameBytes)

	// Unrecognised file names alone are rejected
	stray := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0666))
	_, err = OpenFiles(&logger.NullLogger{}, stray)
	require.Error(t, err)
}

func TestVersionFallback(t *testing.T) {
	root := t.TempDir()
	writeStudyFixture(t, root)

	// ParaVision 360 style subject file, no version in the TITLE header
	noVersion := strings.Replace(subjectFixture, "Parameter List, ParaVision 6.0.1", "Parameter List", 1)
	writeFixtureFile(t, root, "subject", []byte(noVersion))

	ds, err := Open(root, &logger.NullLogger{})
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, "6.0.1", ds.Version())
}

func TestDetect(t *testing.T) {
	root := t.TempDir()
	writeStudyFixture(t, root)

	ok, err := Detect(root)
	require.NoError(t, err)
	assert.True(t, ok)

	empty := t.TempDir()
	ok, err = Detect(empty)
	require.NoError(t, err)
	assert.False(t, ok)

	plain := filepath.Join(empty, "file.txt")
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0666))
	ok, err = Detect(plain)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Detect(filepath.Join(empty, "missing"))
	require.Error(t, err)

	zipped, err := utils.ZipDirectoryTree(root)
	require.NoError(t, err)
	zipPath := filepath.Join(empty, "study.zip")
	require.NoError(t, os.WriteFile(zipPath, zipped, 0666))

	ok, err = Detect(zipPath)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStudyInfo(t *testing.T) {
	root := t.TempDir()
	writeStudyFixture(t, root)

	ds, err := Open(root, &logger.NullLogger{})
	require.NoError(t, err)
	defer ds.Close()

	info := ds.Info()
	assert.Equal(t, "6.0.1", info.ParaVision)
	assert.Equal(t, "nmrsu", info.UserAccount)
	assert.Equal(t, "2020-02-21T09:43:22,093+0100", info.Date)
	assert.Equal(t, "mouse01", info.SubjectID)
	assert.Equal(t, "C57BL6_04", info.SubjectName)
	assert.Equal(t, "lab_mouse", info.SessionID)
	assert.Equal(t, "1", info.StudyNumber)
	assert.Equal(t, "Quadruped", info.SubjectType)
	assert.Equal(t, "MALE", info.Sex)
	assert.InDelta(t, 0.0254, info.Weight, 1e-9)
	assert.Equal(t, "20191120", info.DOB)
	assert.Equal(t, "HeadFirst", info.Entry)
	assert.Equal(t, "Supine", info.Position)
}

func TestOpenNotAStudy(t *testing.T) {
	empty := t.TempDir()
	_, err := Open(empty, &logger.NullLogger{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not look like a ParaVision study")

	_, err = Open(filepath.Join(empty, "missing"), &logger.NullLogger{})
	require.Error(t, err)
}
