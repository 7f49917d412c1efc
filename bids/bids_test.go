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

package bids

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/data-convert/convertModels"
)

const subjectFixture = `##TITLE=Parameter List, ParaVision 6.0.1
##JCAMPDX=4.24
##OWNER=nmrsu
##$SUBJECT_id=( 60 )
<mouse-01>
##$SUBJECT_sex=MALE
##$SUBJECT_type=Quadruped
##$SUBJECT_weight=0.0254
##$SUBJECT_study_name=( 64 )
<lab_mouse>
##END=
`

const acqpTemplate = `##TITLE=Parameter List, ParaVision 6.0.1
##JCAMPDX=4.24
##$ACQ_protocol_name=( 64 )
<%v>
##$ACQ_method=( 40 )
<%v>
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

func writeScan(t *testing.T, root string, id int, protocol string, sequence string) {
	t.Helper()
	scanDir := filepath.Join(root, fmt.Sprintf("%v", id))
	require.NoError(t, os.MkdirAll(filepath.Join(scanDir, "pdata", "1"), 0777))
	acqp := fmt.Sprintf(acqpTemplate, protocol, sequence)
	require.NoError(t, os.WriteFile(filepath.Join(scanDir, "acqp"), []byte(acqp), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(scanDir, "pdata", "1", "visu_pars"), []byte(visuFixture), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(scanDir, "pdata", "1", "2dseq"), make([]byte, 4*4*3*2), 0666))
}

func writeStudy(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "subject"), []byte(subjectFixture), 0666))
	writeScan(t, root, 3, "T2_TurboRARE", "Bruker:RARE")
	writeScan(t, root, 4, "rsfMRI_EPI", "Bruker:EPI")
	writeScan(t, root, 6, "AdjustmentScan", "Bruker:Press")
	return root
}

func TestBuildLayout(t *testing.T) {
	root := writeStudy(t)
	outRoot := filepath.Join(t.TempDir(), "bids")

	builder := Builder{}
	opts := convertModels.Options{Sidecar: true}
	result, err := builder.Build(root, outRoot, opts, &logger.NullLogger{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"sub-mouse01/anat/sub-mouse01_T2w.nii",
		"sub-mouse01/func/sub-mouse01_acq-epi_bold.nii",
	}, result.Written)
	assert.Equal(t, []string{"6/1"}, result.Skipped)

	// Sidecars sit next to the images
	for _, rel := range result.Written {
		sidecar := strings.TrimSuffix(rel, ".nii") + ".json"
		_, err := os.Stat(filepath.Join(outRoot, filepath.FromSlash(sidecar)))
		assert.NoError(t, err, sidecar)
	}

	descBytes, err := os.ReadFile(filepath.Join(outRoot, "dataset_description.json"))
	require.NoError(t, err)
	desc := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(descBytes, &desc))
	assert.Equal(t, "lab_mouse", desc["Name"])
	assert.Equal(t, BIDSVersion, desc["BIDSVersion"])
	assert.Equal(t, "raw", desc["DatasetType"])

	participants, err := os.ReadFile(filepath.Join(outRoot, "participants.tsv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(participants)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "participant_id\tspecies\tsex\tweight", lines[0])
	assert.Equal(t, "sub-mouse01\tQuadruped\tMALE\t0.0254", lines[1])

	_, err = os.Stat(filepath.Join(outRoot, "README"))
	assert.NoError(t, err)
}

func TestBuildRunIndices(t *testing.T) {
	// Two scans landing on the same name get run entities
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "subject"), []byte(subjectFixture), 0666))
	writeScan(t, root, 3, "T2_TurboRARE", "Bruker:RARE")
	writeScan(t, root, 5, "T2_TurboRARE_repeat", "Bruker:RARE")

	builder := Builder{}
	result, err := builder.Build(root, filepath.Join(t.TempDir(), "bids"), convertModels.Options{}, &logger.NullLogger{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"sub-mouse01/anat/sub-mouse01_run-01_T2w.nii",
		"sub-mouse01/anat/sub-mouse01_run-02_T2w.nii",
	}, result.Written)
}

func TestBuildNoRuleMatches(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "subject"), []byte(subjectFixture), 0666))
	writeScan(t, root, 3, "Mystery", "Bruker:Press")

	builder := Builder{}
	_, err := builder.Build(root, t.TempDir(), convertModels.Options{}, &logger.NullLogger{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rule matched")
}

func TestRulesLoadAndMatch(t *testing.T) {
	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, WriteRulesTemplate(rulesPath))

	// Template refuses to overwrite
	require.Error(t, WriteRulesTemplate(rulesPath))

	rs, err := LoadRules(rulesPath)
	require.NoError(t, err)

	rule := rs.Match("T2_TurboRARE", "Bruker:RARE")
	require.NotNil(t, rule)
	assert.Equal(t, "anat", rule.DataType)
	assert.Equal(t, "T2w", rule.Suffix)

	rule = rs.Match("rsfMRI_EPI", "Bruker:EPI")
	require.NotNil(t, rule)
	assert.Equal(t, "func", rule.DataType)
	assert.Equal(t, "epi", rule.Acq)

	assert.Nil(t, rs.Match("Mystery", "Bruker:Press"))
}

func TestRulesBadPattern(t *testing.T) {
	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	bad := "rules:\n  - match: \"[unclosed\"\n    datatype: anat\n    suffix: T2w\n"
	require.NoError(t, os.WriteFile(rulesPath, []byte(bad), 0666))

	_, err := LoadRules(rulesPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad match pattern")
}

func TestNameStem(t *testing.T) {
	name := Name{Subject: "mouse01", Session: "ses1", DataType: "func", Acq: "epi", Run: 2, Suffix: "bold"}
	assert.Equal(t, "sub-mouse01_ses-ses1_acq-epi_run-02_bold", name.Stem())
	assert.Equal(t, "sub-mouse01/ses-ses1/func", name.Dir())

	minimal := Name{Subject: "rat9", DataType: "anat", Suffix: "T2w"}
	assert.Equal(t, "sub-rat9/anat/sub-rat9_T2w", minimal.RelPath())
}
