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

// Package pvdataset reads Bruker ParaVision studies. A study is a directory
// (or a zip archive of one) laid out as:
//
//	<study>/subject
//	<study>/<scanID>/acqp
//	<study>/<scanID>/method
//	<study>/<scanID>/fid
//	<study>/<scanID>/pdata/<recoID>/2dseq
//	<study>/<scanID>/pdata/<recoID>/visu_pars
//	<study>/<scanID>/pdata/<recoID>/reco
//
// Parameter files are JCAMP-DX text and are parsed up front via
// core/jcampdx. Frame data (2dseq) is only read on demand.
package pvdataset

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pvconv/pvconv/core/jcampdx"
	"github.com/pvconv/pvconv/core/logger"
)

const subjectFileName = "subject"

// Recognised archive extensions. ParaVision 360 exports .PvDatasets files,
// which are plain zips.
var archiveExtensions = []string{".zip", ".pvdatasets"}

// Dataset is one ParaVision study: the subject parameters plus all scans
// found under the study root.
type Dataset struct {
	// Path is what Open was given, kept for error messages and naming.
	Path string

	fs      FileSet
	closer  io.Closer
	subject *jcampdx.Params
	scans   map[int]*Scan
	scanIDs []int
}

// Open reads the study at path, either a study directory or a zip archive
// of one. Archives are read in place, nothing is extracted to disk.
// Oddities found while parsing (eg repeated parameter keys) go to log.
func Open(path string, log logger.ILogger) (*Dataset, error) {
	fs, closer, err := openFileSetPath(path)
	if err != nil {
		return nil, err
	}

	ds, err := load(fs, path, log)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}

	ds.closer = closer
	return ds, nil
}

// OpenFiles builds a study from loose ParaVision files, eg a visu_pars and
// 2dseq pair copied out of a study. Recognised file names are mapped into
// the standard layout under scan 1, reco 1.
func OpenFiles(log logger.ILogger, paths ...string) (*Dataset, error) {
	fs, err := makeLooseFileSet(paths)
	if err != nil {
		return nil, err
	}

	root := ""
	if len(paths) > 0 {
		root = filepath.Dir(paths[0])
	}
	return load(fs, root, log)
}

// Detect reports whether path looks like a ParaVision study without doing
// a full parse. Used by converter selection.
func Detect(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, errors.Wrapf(err, "failed to stat %v", path)
	}

	if !info.IsDir() && !isArchiveName(path) {
		return false, nil
	}

	fs, closer, err := openFileSetPath(path)
	if err != nil {
		// Unreadable archive, so not ours
		return false, nil
	}
	if closer != nil {
		defer closer.Close()
	}

	return hasStudyMarkers(fs), nil
}

func openFileSetPath(path string) (FileSet, io.Closer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open study %v", path)
	}

	if info.IsDir() {
		return &dirFileSet{root: path}, nil, nil
	}

	if isArchiveName(path) {
		zfs, err := makeZipFileSet(path)
		if err != nil {
			return nil, nil, err
		}
		return zfs, zfs, nil
	}

	return nil, nil, errors.Errorf("%v is neither a directory nor a study archive", path)
}

func isArchiveName(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, known := range archiveExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

func hasStudyMarkers(fs FileSet) bool {
	if fs.Exists(subjectFileName) {
		return true
	}

	names, err := fs.ListDir("")
	if err != nil {
		return false
	}

	for _, name := range names {
		if _, err := strconv.Atoi(name); err != nil {
			continue
		}
		if fs.Exists(name + "/acqp") {
			return true
		}
		if recos, err := fs.ListDir(name + "/pdata"); err == nil && len(recos) > 0 {
			return true
		}
	}
	return false
}

func load(fs FileSet, path string, log logger.ILogger) (*Dataset, error) {
	ds := &Dataset{
		Path:  path,
		fs:    fs,
		scans: map[int]*Scan{},
	}

	if fs.Exists(subjectFileName) {
		subject, err := parseParamsFile(fs, subjectFileName, log)
		if err != nil {
			return nil, err
		}
		ds.subject = subject
	}

	names, err := fs.ListDir("")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list study %v", path)
	}

	for _, name := range names {
		id, err := strconv.Atoi(name)
		if err != nil || id < 0 {
			// Not a scan. Studies carry AdjResult, ResultState and other
			// non-numeric entries alongside the scan directories.
			continue
		}

		scan, err := loadScan(fs, id, log)
		if err != nil {
			return nil, errors.Wrapf(err, "scan %v of %v", id, path)
		}
		if scan == nil {
			continue
		}

		ds.scans[id] = scan
		ds.scanIDs = append(ds.scanIDs, id)
	}
	sort.Ints(ds.scanIDs)

	if ds.subject == nil && len(ds.scanIDs) <= 0 {
		return nil, errors.Errorf("%v does not look like a ParaVision study, found no subject file and no scans", path)
	}
	return ds, nil
}

func parseParamsFile(fs FileSet, relPath string, log logger.ILogger) (*jcampdx.Params, error) {
	data, err := fs.Read(relPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %v", relPath)
	}

	params, err := jcampdx.ParseBytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %v", relPath)
	}

	if len(params.DuplicateKeys) > 0 {
		log.Infof("%v has %v repeated parameter keys, kept the last value of each", relPath, len(params.DuplicateKeys))
	}
	return params, nil
}

// Close releases the underlying archive if there is one. Safe to call on
// datasets opened from plain directories.
func (d *Dataset) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

// ScanIDs returns the ids of all scans found, sorted ascending.
func (d *Dataset) ScanIDs() []int {
	ids := make([]int, len(d.scanIDs))
	copy(ids, d.scanIDs)
	return ids
}

// Scan looks up one scan by id.
func (d *Dataset) Scan(id int) (*Scan, error) {
	scan, ok := d.scans[id]
	if !ok {
		return nil, errors.Errorf("scan %v not found in %v", id, d.Path)
	}
	return scan, nil
}

// Subject returns the parsed subject file, nil when the study has none.
func (d *Dataset) Subject() *jcampdx.Params {
	return d.subject
}

// Name returns a label for the study, used in output file names: the study
// name from the subject file when present, otherwise the base name of the
// path Open was given.
func (d *Dataset) Name() string {
	if d.subject != nil {
		if name, ok := d.subject.GetString("SUBJECT_study_name"); ok && len(name) > 0 {
			return name
		}
	}

	base := filepath.Base(strings.TrimRight(d.Path, "/\\"))
	if isArchiveName(base) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if base == "." || base == "" {
		return "study"
	}
	return base
}

var versionPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// Version returns the ParaVision release that wrote the study, eg "6.0.1".
// Parsed from the subject TITLE header, falling back to VisuCreatorVersion
// of the first reco found when the TITLE carries no version number
// (ParaVision 360 moved it out of the subject file).
func (d *Dataset) Version() string {
	if d.subject != nil {
		if title, ok := d.subject.Header("TITLE"); ok {
			if v := versionPattern.FindString(title); v != "" {
				return v
			}
		}
	}

	for _, id := range d.scanIDs {
		scan := d.scans[id]
		for _, recoID := range scan.recoIDs {
			visu := scan.recos[recoID].visu
			if creator, ok := visu.GetString("VisuCreatorVersion"); ok {
				if v := versionPattern.FindString(creator); v != "" {
					return v
				}
			}
		}
	}
	return ""
}
