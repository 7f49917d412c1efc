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

// Package datasetArchive keeps zipped snapshots of studies, either in a
// local directory or an S3 bucket, with a sqlite catalog recording what was
// archived when and with what checksum. Operations are single shot: add a
// study, list, verify the stored zips still hash right, fetch one back out.
package datasetArchive

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pvconv/pvconv/core/fileaccess"
	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/core/timestamper"
	"github.com/pvconv/pvconv/core/utils"
	"github.com/pvconv/pvconv/pvdataset"
)

// RootArchive - where zips sit under the archive bucket/root
const RootArchive = "archive"

// Archiver runs the archive operations against one store + catalog pair
type Archiver struct {
	store   fileaccess.FileAccess
	bucket  string // bucket name for S3, root dir for local
	catalog *Catalog
	ts      timestamper.ITimeStamper
	log     logger.ILogger
}

func MakeArchiver(store fileaccess.FileAccess, bucket string, catalog *Catalog, ts timestamper.ITimeStamper, log logger.ILogger) *Archiver {
	return &Archiver{
		store:   store,
		bucket:  bucket,
		catalog: catalog,
		ts:      ts,
		log:     log,
	}
}

// Add zips the study directory and stores it as a new snapshot. When the
// study content hasn't changed since the last snapshot (same checksum)
// nothing is stored and the existing snapshot comes back with added=false.
func (a *Archiver) Add(studyPath string) (*Snapshot, bool, error) {
	isStudy, err := pvdataset.Detect(studyPath)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to check study %v", studyPath)
	}
	if !isStudy {
		return nil, false, errors.Errorf("%v does not look like a ParaVision study", studyPath)
	}

	studyID := utils.MakeSaveableFileName(filepath.Base(filepath.Clean(studyPath)))

	a.log.Debugf("Zipping study %v...", studyPath)
	zipped, err := utils.ZipDirectoryTree(studyPath)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to zip study %v", studyPath)
	}

	checksum := fmt.Sprintf("%x", sha256.Sum256(zipped))

	existing, err := a.catalog.FindChecksum(studyID, checksum)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		a.log.Infof("Study %v already archived with this content (snapshot %v), skipping", studyID, existing.SnapshotID)
		return existing, false, nil
	}

	now := a.ts.GetTimeNowSec()
	snap := Snapshot{
		SnapshotID: uuid.NewString(),
		StudyID:    studyID,
		StudyPath:  studyPath,
		ZipPath:    path.Join(RootArchive, studyID, timestamper.StampToPathSegment(now)+"-"+uuid.NewString()[:8]+".zip"),
		SizeBytes:  int64(len(zipped)),
		SHA256:     checksum,
		ArchivedAt: now,
	}

	a.log.Debugf("Storing %v (%v bytes)...", snap.ZipPath, snap.SizeBytes)
	if err := a.store.WriteObject(a.bucket, snap.ZipPath, zipped); err != nil {
		return nil, false, errors.Wrapf(err, "failed to store archive zip %v", snap.ZipPath)
	}

	if err := a.catalog.AddSnapshot(snap); err != nil {
		return nil, false, errors.Wrapf(err, "archive zip stored but cataloguing failed for %v", snap.SnapshotID)
	}

	a.log.Infof("Archived %v as snapshot %v", studyID, snap.SnapshotID)
	return &snap, true, nil
}

// List returns the catalog, all studies or just one
func (a *Archiver) List(studyID string) ([]Snapshot, error) {
	if len(studyID) > 0 {
		return a.catalog.Snapshots(studyID)
	}
	return a.catalog.AllSnapshots()
}

// VerifyResult is the outcome of checking one snapshot
type VerifyResult struct {
	Snapshot Snapshot
	OK       bool
	Detail   string
}

// Verify re-reads every stored zip for the study and compares against the
// catalogued checksums. Failing to read a zip is a failed verification,
// not an error.
func (a *Archiver) Verify(studyID string) ([]VerifyResult, error) {
	snaps, err := a.List(studyID)
	if err != nil {
		return nil, err
	}

	results := []VerifyResult{}
	for _, snap := range snaps {
		res := VerifyResult{Snapshot: snap, OK: true}

		data, err := a.store.ReadObject(a.bucket, snap.ZipPath)
		if err != nil {
			res.OK = false
			res.Detail = fmt.Sprintf("failed to read %v: %v", snap.ZipPath, err)
		} else if checksum := fmt.Sprintf("%x", sha256.Sum256(data)); checksum != snap.SHA256 {
			res.OK = false
			res.Detail = fmt.Sprintf("checksum mismatch: stored %v, catalog %v", checksum, snap.SHA256)
		}

		if !res.OK {
			a.log.Errorf("Snapshot %v failed verification: %v", snap.SnapshotID, res.Detail)
		}
		results = append(results, res)
	}
	return results, nil
}

// Fetch restores the most recent snapshot of the study into destDir and
// returns the path of the unzipped study directory
func (a *Archiver) Fetch(studyID string, destDir string) (string, error) {
	snaps, err := a.catalog.Snapshots(studyID)
	if err != nil {
		return "", err
	}
	if len(snaps) <= 0 {
		return "", errors.Errorf("no archived snapshots for study %v", studyID)
	}
	snap := snaps[len(snaps)-1]

	a.log.Debugf("Fetching snapshot %v (%v)...", snap.SnapshotID, snap.ZipPath)
	data, err := a.store.ReadObject(a.bucket, snap.ZipPath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read archive zip %v", snap.ZipPath)
	}

	downloadPath, err := fileaccess.MakeEmptyLocalDirectory(destDir, "download")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(downloadPath)

	zipPath := filepath.Join(downloadPath, path.Base(snap.ZipPath))
	if err := os.WriteFile(zipPath, data, 0666); err != nil {
		return "", err
	}

	unzipPath, err := fileaccess.MakeEmptyLocalDirectory(destDir, studyID)
	if err != nil {
		return "", err
	}

	if _, err := utils.UnzipDirectory(zipPath, unzipPath, false); err != nil {
		return "", errors.Wrapf(err, "failed to unzip snapshot %v", snap.SnapshotID)
	}

	a.log.Infof("Restored study %v snapshot %v to %v", studyID, snap.SnapshotID, unzipPath)
	return unzipPath, nil
}
