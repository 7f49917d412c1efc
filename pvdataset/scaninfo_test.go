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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvconv/pvconv/core/logger"
)

const visuMultiSliceFixture = `##TITLE=Parameter List, ParaVision 6.0.1
##JCAMPDX=4.24
##$VisuVersion=3
##$VisuCoreFrameCount=38
##$VisuCoreDim=2
##$VisuCoreSize=( 2 )
256 256
##$VisuCoreExtent=( 2 )
20 20
##$VisuCoreFrameThickness=0.7
##$VisuCoreWordType=_16BIT_SGN_INT
##$VisuCoreByteOrder=littleEndian
##$VisuFGOrderDescDim=2
##$VisuFGOrderDesc=( 2, 5 )
(19, <FG_SLICE>, <>, 0, 2) (2, <FG_ECHO>, <>, 2, 1)
##$VisuCoreSlicePacksSlices=( 1 )
(1, 19)
##$VisuCoreSlicePacksSliceDist=( 1 )
0.7
##END=
`

func TestScanInfo(t *testing.T) {
	root := t.TempDir()
	writeStudyFixture(t, root)

	ds, err := Open(root, &logger.NullLogger{})
	require.NoError(t, err)
	defer ds.Close()

	scan, err := ds.Scan(3)
	require.NoError(t, err)

	info := scan.Info()
	assert.Equal(t, "T2_TurboRARE", info.Protocol)
	assert.Equal(t, "Bruker:RARE", info.Sequence)
	assert.Equal(t, []float64{2500}, info.TRms)
	assert.Equal(t, []float64{33}, info.TEms)
	assert.Equal(t, 90.0, info.FlipAngle)
	assert.InDelta(t, 34722.22, info.EffBWHz, 0.01)
	assert.Equal(t, 1, info.NumEchoes)
}

func TestRecoInfoMultiSlice(t *testing.T) {
	root := t.TempDir()
	writeStudyFixture(t, root)
	writeFixtureFile(t, root, "7/acqp", []byte(acqpFixture))
	writeFixtureFile(t, root, "7/pdata/1/visu_pars", []byte(visuMultiSliceFixture))
	writeFixtureFile(t, root, "7/pdata/1/2dseq", make([]byte, 256*256*38*2))

	ds, err := Open(root, &logger.NullLogger{})
	require.NoError(t, err)
	defer ds.Close()

	scan, err := ds.Scan(7)
	require.NoError(t, err)
	reco, err := scan.Reco(1)
	require.NoError(t, err)

	info := reco.Info()
	assert.Equal(t, []int{256, 256}, info.MatrixSize)
	require.Len(t, info.ResolutionMm, 2)
	assert.InDelta(t, 0.078, info.ResolutionMm[0], 0.001)
	assert.Equal(t, []int{19}, info.NumSlices)
	assert.Equal(t, 1, info.SlicePacks)
	assert.Equal(t, []string{"slice", "echo"}, info.DimDesc)
	assert.Equal(t, []float64{0.7}, info.SliceDistancesMm)
	assert.Equal(t, 0.0, info.TemporalResolMs)
}

func TestRecoInfoSinglePackFallback(t *testing.T) {
	// The tiny fixture reco has no slice pack parameters at all, slice
	// count falls back to the frame count
	root := t.TempDir()
	writeStudyFixture(t, root)

	ds, err := Open(root, &logger.NullLogger{})
	require.NoError(t, err)
	defer ds.Close()

	scan, err := ds.Scan(3)
	require.NoError(t, err)
	reco, err := scan.Reco(1)
	require.NoError(t, err)

	info := reco.Info()
	assert.Equal(t, []int{4, 4}, info.MatrixSize)
	assert.Equal(t, []int{3}, info.NumSlices)
	assert.Equal(t, []float64{1}, info.SliceDistancesMm)
}
