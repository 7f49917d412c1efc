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

// Package bids lays converted studies out as a BIDS (Brain Imaging Data
// Structure) tree: entity-named files under sub-<label>/<datatype>/, with
// the dataset descriptor and participants table alongside. Which scan
// becomes which datatype/suffix is driven by an ordered rules file.
package bids

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/pvconv/pvconv/core/fileaccess"
	"github.com/pvconv/pvconv/core/logger"
	dataConvert "github.com/pvconv/pvconv/data-convert"
	"github.com/pvconv/pvconv/data-convert/convertModels"
	"github.com/pvconv/pvconv/data-convert/output"
)

// BIDSVersion is what dataset_description.json declares
const BIDSVersion = "1.8.0"

// Builder converts a study and writes it into a layout root
type Builder struct {
	Rules *RuleSet
	Log   logger.ILogger
}

// BuildResult says what landed where
type BuildResult struct {
	Root    string
	Written []string // image paths relative to the root
	Skipped []string // "scan/reco" ids no rule matched
}

// Build converts the study at importPath and lays the images out under
// outRoot. Scans no rule matches are skipped with a log line, the build
// only fails when nothing at all could be placed.
func (b *Builder) Build(importPath string, outRoot string, opts convertModels.Options, log logger.ILogger) (*BuildResult, error) {
	if log == nil {
		log = b.Log
	}
	if log == nil {
		log = &logger.NullLogger{}
	}

	rules := b.Rules
	if rules == nil {
		rules = DefaultRules()
	}

	results, err := dataConvert.Import(importPath, convertModels.Selection{}, opts, log)
	if err != nil {
		return nil, err
	}

	subject := MakeLabel(results[0].Volume.Meta.SubjectID)
	if len(subject) <= 0 {
		subject = MakeLabel(results[0].Volume.Meta.StudyName)
	}
	if len(subject) <= 0 {
		return nil, errors.Errorf("study %v has no usable subject id for layout naming", importPath)
	}

	placed, skipped := b.placeResults(results, subject, rules, log)
	if len(placed) <= 0 {
		return nil, errors.Errorf("no rule matched any of the %v converted images", len(results))
	}

	build := &BuildResult{Root: outRoot, Skipped: skipped}
	saver := output.NiftiSaver{Version: dataConvert.ToolVersion}

	for _, p := range placed {
		fullDir := filepath.Join(outRoot, filepath.FromSlash(p.name.Dir()))
		if err := os.MkdirAll(fullDir, 0777); err != nil {
			return nil, errors.Wrapf(err, "failed to create %v", fullDir)
		}

		basePath := filepath.Join(outRoot, filepath.FromSlash(p.name.RelPath()))
		imgPath, err := saver.Save(p.result.Volume, basePath, opts, log)
		if err != nil {
			return nil, err
		}

		rel, _ := filepath.Rel(outRoot, imgPath)
		build.Written = append(build.Written, filepath.ToSlash(rel))
		log.Infof("  %v", filepath.ToSlash(rel))
	}

	if err := b.writeDescriptors(outRoot, subject, results[0].Volume.Meta); err != nil {
		return nil, err
	}

	return build, nil
}

type placedResult struct {
	result *convertModels.ConvertResult
	name   Name
}

// placeResults assigns every convertible image a layout name. Run indices
// only appear when several images land on the same name.
func (b *Builder) placeResults(results []*convertModels.ConvertResult, subject string, rules *RuleSet, log logger.ILogger) ([]placedResult, []string) {
	placed := []placedResult{}
	skipped := []string{}
	groupCounts := map[string]int{}

	for _, res := range results {
		rule := rules.Match(res.Volume.Meta.Protocol, res.Volume.Meta.Method)
		if rule == nil {
			id := fmt.Sprintf("%v/%v", res.ScanID, res.RecoID)
			log.Infof("No rule matched scan %v (%v), skipping", id, res.Volume.Meta.Protocol)
			skipped = append(skipped, id)
			continue
		}

		name := Name{
			Subject:  subject,
			DataType: rule.DataType,
			Acq:      MakeLabel(rule.Acq),
			Suffix:   rule.Suffix,
		}

		key := name.DataType + "/" + name.Acq + "/" + name.Suffix
		groupCounts[key]++

		placed = append(placed, placedResult{result: res, name: name})
	}

	// Second pass: number the collision groups
	runSoFar := map[string]int{}
	for i := range placed {
		n := &placed[i].name
		key := n.DataType + "/" + n.Acq + "/" + n.Suffix
		if groupCounts[key] > 1 {
			runSoFar[key]++
			n.Run = runSoFar[key]
		}
	}

	return placed, skipped
}

func (b *Builder) writeDescriptors(outRoot string, subject string, meta convertModels.AcqMeta) error {
	localFS := &fileaccess.FSAccess{}

	description := map[string]interface{}{
		"Name":        meta.StudyName,
		"BIDSVersion": BIDSVersion,
		"DatasetType": "raw",
		"GeneratedBy": []map[string]string{
			{"Name": "pvconv", "Version": dataConvert.ToolVersion},
		},
	}
	if err := localFS.WriteJSON(outRoot, "dataset_description.json", description); err != nil {
		return err
	}

	participants := []string{"participant_id\tspecies\tsex\tweight"}
	weight := ""
	if meta.SubjectWeight > 0 {
		weight = fmt.Sprintf("%g", meta.SubjectWeight)
	}
	participants = append(participants, strings.Join([]string{
		"sub-" + subject,
		orNA(meta.Species),
		orNA(meta.SubjectSex),
		orNA(weight),
	}, "\t"))
	err := localFS.WriteObject(outRoot, "participants.tsv", []byte(strings.Join(participants, "\n")+"\n"))
	if err != nil {
		return err
	}

	readme := fmt.Sprintf("Converted from Bruker ParaVision study %v by pvconv %v.\n", meta.StudyName, dataConvert.ToolVersion)
	return localFS.WriteObject(outRoot, "README", []byte(readme))
}

func orNA(s string) string {
	if len(s) <= 0 {
		return "n/a"
	}
	return s
}
