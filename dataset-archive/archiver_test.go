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

package datasetArchive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvconv/pvconv/core/fileaccess"
	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/core/timestamper"
)

const testSubject = `##TITLE=Parameter List, ParaVision 6.0.1
##OWNER=nmrsu
##$SUBJECT_id=( 60 )
<mouse01>
##$SUBJECT_study_name=( 64 )
<lab_mouse>
##END=
`

const testAcqp = `##TITLE=Parameter List, ParaVision 6.0.1
##$ACQ_protocol_name=( 64 )
<T2_TurboRARE>
##END=
`

func writeTestStudy(t *testing.T, parent string, name string) string {
	root := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "3", "pdata", "1"), 0777))
	require.NoError(t, os.WriteFile(filepath.Join(root, "subject"), []byte(testSubject), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(root, "3", "acqp"), []byte(testAcqp), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(root, "3", "pdata", "1", "2dseq"), make([]byte, 32), 0666))
	return root
}

func makeTestArchiver(t *testing.T, stamps []int64) (*Archiver, *fileaccess.MemoryFileAccess) {
	catalog, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { catalog.Close() })

	store := fileaccess.MakeMemoryFileAccess()
	ts := &timestamper.MockTimeNowStamper{QueuedTimeStamps: stamps}
	return MakeArchiver(store, "archive-bucket", catalog, ts, &logger.NullLogger{}), store
}

func TestArchiveAddListFetch(t *testing.T) {
	arch, store := makeTestArchiver(t, []int64{1598431999, 1598435000})
	studyPath := writeTestStudy(t, t.TempDir(), "20200821_094322_lab_mouse_1_1")

	snap, added, err := arch.Add(studyPath)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "20200821_094322_lab_mouse_1_1", snap.StudyID)
	assert.True(t, strings.HasPrefix(snap.ZipPath, "archive/20200821_094322_lab_mouse_1_1/20200826-"))
	assert.Len(t, snap.SHA256, 64)

	exists, err := store.ObjectExists("archive-bucket", snap.ZipPath)
	require.NoError(t, err)
	assert.True(t, exists)

	// Unchanged study content is deduplicated
	again, added, err := arch.Add(studyPath)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, snap.SnapshotID, again.SnapshotID)

	snaps, err := arch.List("")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, snap.SnapshotID, snaps[0].SnapshotID)

	restored, err := arch.Fetch(snap.StudyID, t.TempDir())
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(restored, "subject"))
	require.NoError(t, err)
	assert.Equal(t, testSubject, string(data))
}

func TestArchiveChangedStudyMakesNewSnapshot(t *testing.T) {
	arch, _ := makeTestArchiver(t, []int64{1598431999, 1598435000})
	studyPath := writeTestStudy(t, t.TempDir(), "rat_study_1")

	first, added, err := arch.Add(studyPath)
	require.NoError(t, err)
	require.True(t, added)

	// A new scan arrives, content changes, checksum changes
	require.NoError(t, os.MkdirAll(filepath.Join(studyPath, "4"), 0777))
	require.NoError(t, os.WriteFile(filepath.Join(studyPath, "4", "acqp"), []byte(testAcqp), 0666))

	second, added, err := arch.Add(studyPath)
	require.NoError(t, err)
	assert.True(t, added)
	assert.NotEqual(t, first.SnapshotID, second.SnapshotID)
	assert.NotEqual(t, first.SHA256, second.SHA256)

	snaps, err := arch.List("rat_study_1")
	require.NoError(t, err)
	assert.Len(t, snaps, 2)

	// Fetch restores the most recent snapshot
	restored, err := arch.Fetch("rat_study_1", t.TempDir())
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(restored, "4", "acqp"))
	assert.NoError(t, err)
}

func TestArchiveVerify(t *testing.T) {
	arch, store := makeTestArchiver(t, []int64{1598431999})
	studyPath := writeTestStudy(t, t.TempDir(), "mouse_study_2")

	snap, _, err := arch.Add(studyPath)
	require.NoError(t, err)

	results, err := arch.Verify("mouse_study_2")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].OK)

	// Corrupt the stored zip, verification has to flag it
	require.NoError(t, store.WriteObject("archive-bucket", snap.ZipPath, []byte("corrupted")))

	results, err = arch.Verify("mouse_study_2")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Contains(t, results[0].Detail, "checksum mismatch")
}

func TestArchiveRejectsNonStudy(t *testing.T) {
	arch, _ := makeTestArchiver(t, []int64{1598431999})

	junk := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(junk, "notes.txt"), []byte("x"), 0666))

	_, _, err := arch.Add(junk)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not look like a ParaVision study")
}

func TestArchiveFetchNothingArchived(t *testing.T) {
	arch, _ := makeTestArchiver(t, []int64{})

	_, err := arch.Fetch("never_archived", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no archived snapshots")
}
