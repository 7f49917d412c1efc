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
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Snapshot is one archived copy of a study
type Snapshot struct {
	SnapshotID string
	StudyID    string
	StudyPath  string // where the study was read from when archived
	ZipPath    string // where the zip sits in the archive store
	SizeBytes  int64
	SHA256     string
	ArchivedAt int64 // unix seconds
}

// Catalog records what has been archived, and where, in a sqlite file.
// The zips themselves live in the archive store (local dir or S3), the
// catalog is what List/Verify/Fetch work from.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if needed) the catalog at dbPath
func OpenCatalog(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open archive catalog %v", dbPath)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			snapshot_id   TEXT PRIMARY KEY,
			study_id      TEXT NOT NULL,
			study_path    TEXT,
			zip_path      TEXT NOT NULL,
			size_bytes    BIGINT,
			sha256        TEXT NOT NULL,
			archived_at   BIGINT
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_study ON snapshots(study_id);
	`)
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to init archive catalog %v", dbPath)
	}

	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// AddSnapshot records one archived zip
func (c *Catalog) AddSnapshot(snap Snapshot) error {
	_, err := c.db.Exec(`
		INSERT INTO snapshots (snapshot_id, study_id, study_path, zip_path, size_bytes, sha256, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.SnapshotID, snap.StudyID, snap.StudyPath, snap.ZipPath, snap.SizeBytes, snap.SHA256, snap.ArchivedAt)
	return err
}

// Snapshots lists what's archived for one study, oldest first
func (c *Catalog) Snapshots(studyID string) ([]Snapshot, error) {
	return c.query(`SELECT snapshot_id, study_id, study_path, zip_path, size_bytes, sha256, archived_at
		FROM snapshots WHERE study_id = ? ORDER BY archived_at, snapshot_id`, studyID)
}

// AllSnapshots lists the entire catalog, oldest first
func (c *Catalog) AllSnapshots() ([]Snapshot, error) {
	return c.query(`SELECT snapshot_id, study_id, study_path, zip_path, size_bytes, sha256, archived_at
		FROM snapshots ORDER BY archived_at, snapshot_id`)
}

// FindChecksum returns the snapshot holding this exact content for the
// study, if one exists. This is what makes Add idempotent.
func (c *Catalog) FindChecksum(studyID string, sha256 string) (*Snapshot, error) {
	snaps, err := c.query(`SELECT snapshot_id, study_id, study_path, zip_path, size_bytes, sha256, archived_at
		FROM snapshots WHERE study_id = ? AND sha256 = ?`, studyID, sha256)
	if err != nil {
		return nil, err
	}
	if len(snaps) <= 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

func (c *Catalog) query(q string, args ...interface{}) ([]Snapshot, error) {
	rows, err := c.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Snapshot{}
	for rows.Next() {
		snap := Snapshot{}
		err = rows.Scan(&snap.SnapshotID, &snap.StudyID, &snap.StudyPath, &snap.ZipPath, &snap.SizeBytes, &snap.SHA256, &snap.ArchivedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, snap)
	}
	return result, rows.Err()
}
