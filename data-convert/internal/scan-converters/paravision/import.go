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

// Package paravision converts Bruker ParaVision studies. Scans are read via
// pvdataset, frame data is shaped by recon, and acquisition metadata is
// collected from acqp/method with visu_pars filling the gaps for recos that
// shipped without the acquisition files.
package paravision

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/data-convert/convertModels"
	"github.com/pvconv/pvconv/data-convert/converter"
	"github.com/pvconv/pvconv/data-convert/internal/recon"
	"github.com/pvconv/pvconv/pvdataset"
)

type Converter struct {
}

func init() {
	converter.Register(Converter{})
}

func (c Converter) Name() string {
	return "paravision"
}

func (c Converter) Detect(importPath string) bool {
	ok, err := pvdataset.Detect(importPath)
	return err == nil && ok
}

func (c Converter) Import(importPath string, sel convertModels.Selection, opts convertModels.Options, log logger.ILogger) ([]*convertModels.ConvertResult, error) {
	ds, err := pvdataset.Open(importPath, log)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	return ImportDataset(ds, sel, opts, log)
}

// ImportDataset converts an already opened study. Exposed so library callers
// holding a Dataset don't have to reopen it. A reco that fails to
// reconstruct is logged and skipped, an error only comes back when nothing
// converted at all.
func ImportDataset(ds *pvdataset.Dataset, sel convertModels.Selection, opts convertModels.Options, log logger.ILogger) ([]*convertModels.ConvertResult, error) {
	log.Infof("Opened %v, ParaVision %v, %v scans", ds.Name(), ds.Version(), len(ds.ScanIDs()))

	results := []*convertModels.ConvertResult{}
	failures := 0

	for _, scanID := range ds.ScanIDs() {
		if !sel.WantScan(scanID) {
			continue
		}

		scan, err := ds.Scan(scanID)
		if err != nil {
			return nil, err
		}

		meta := buildMeta(ds, scan)

		for _, recoID := range scan.RecoIDs() {
			if !sel.WantReco(recoID) {
				continue
			}

			reco, err := scan.Reco(recoID)
			if err != nil {
				return nil, err
			}

			if !reco.HasFrames() {
				log.Debugf("Scan %v reco %v has no frame data, skipping", scanID, recoID)
				continue
			}

			vols, err := recon.Reconstruct(reco, opts.ScaleMode, log)
			if err != nil {
				log.Errorf("Failed to reconstruct scan %v reco %v: %v", scanID, recoID, err)
				failures++
				continue
			}

			for _, vol := range vols {
				vol.Meta = meta

				suffix := ""
				if vol.SlicePackCount > 1 {
					suffix = fmt.Sprintf("_pack-%v", vol.SlicePack+1)
				}

				results = append(results, &convertModels.ConvertResult{
					ScanID: scanID,
					RecoID: recoID,
					Suffix: suffix,
					Volume: vol,
				})
			}
		}
	}

	if len(results) <= 0 {
		if failures > 0 {
			return nil, errors.Errorf("all %v reconstructions failed for %v", failures, ds.Name())
		}
		return nil, errors.Errorf("no convertible images in %v", ds.Name())
	}

	return results, nil
}
