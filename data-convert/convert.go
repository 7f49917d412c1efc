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

// All conversions are started through here: pick a converter for the input
// path, import the selected scans, run any metadata filter, then write the
// NIfTI files and sidecars.
package dataConvert

import (
	"fmt"
	"os"
	"path"

	"github.com/pkg/errors"

	"github.com/pvconv/pvconv/core/logger"
	"github.com/pvconv/pvconv/core/utils"
	"github.com/pvconv/pvconv/data-convert/convertModels"
	"github.com/pvconv/pvconv/data-convert/converter"

	"github.com/pvconv/pvconv/data-convert/output"

	// Converters register themselves into the registry
	_ "github.com/pvconv/pvconv/data-convert/internal/scan-converters/paravision"
)

// ToolVersion is stamped into output headers, sidecars and the CLI version
// output
const ToolVersion = "4.0.0"

// Import runs a conversion without writing anything: pick a converter,
// import the selected scans and apply the metadata filter. Callers decide
// where the volumes land.
func Import(importPath string, sel convertModels.Selection, opts convertModels.Options, log logger.ILogger) ([]*convertModels.ConvertResult, error) {
	conv, err := converter.Select(importPath, opts.Format)
	if err != nil {
		return nil, err
	}

	log.Infof("Running scan converter %v...", conv.Name())
	results, err := conv.Import(importPath, sel, opts, log)
	if err != nil {
		return nil, errors.Wrapf(err, "import failed for %v", importPath)
	}

	if len(opts.Plugin) > 0 {
		log.Infof("Applying metadata filter %v...", opts.Plugin)
		for _, res := range results {
			if err := converter.ApplyMetaFilter(opts.Plugin, &res.Volume.Meta, opts.PluginConfig); err != nil {
				return nil, errors.Wrapf(err, "metadata filter failed for scan %v reco %v", res.ScanID, res.RecoID)
			}
		}
	}

	return results, nil
}

// ConvertPath converts the dataset at importPath, writing one image per
// reconstructed volume into opts.OutDir. The returned results have OutPath
// filled in.
func ConvertPath(importPath string, sel convertModels.Selection, opts convertModels.Options, log logger.ILogger) ([]*convertModels.ConvertResult, error) {
	results, err := Import(importPath, sel, opts, log)
	if err != nil {
		return nil, err
	}

	outDir := opts.OutDir
	if len(outDir) <= 0 {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0777); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %v", outDir)
	}

	saver := output.NiftiSaver{Version: ToolVersion}

	log.Infof("Writing %v images...", len(results))
	for _, res := range results {
		outPath, err := saver.Save(res.Volume, path.Join(outDir, OutputName(res)), opts, log)
		if err != nil {
			return nil, err
		}
		res.OutPath = outPath
		log.Infof("  %v", outPath)
	}

	return results, nil
}

// ConvertStudy converts every scan of the dataset at importPath
func ConvertStudy(importPath string, opts convertModels.Options, log logger.ILogger) ([]*convertModels.ConvertResult, error) {
	return ConvertPath(importPath, convertModels.Selection{}, opts, log)
}

// ConvertScan converts one scan, all of its recos or the listed ones
func ConvertScan(importPath string, scanID int, recoIDs []int, opts convertModels.Options, log logger.ILogger) ([]*convertModels.ConvertResult, error) {
	sel := convertModels.Selection{Scans: []int{scanID}, Recos: recoIDs}
	return ConvertPath(importPath, sel, opts, log)
}

// OutputName - file name stem for one converted volume:
// <study>-<scan>-<reco>-<protocol> plus the pack suffix when a reco split
func OutputName(res *convertModels.ConvertResult) string {
	stem := fmt.Sprintf("%v-%v-%v", res.Volume.Meta.StudyName, res.ScanID, res.RecoID)
	if len(res.Volume.Meta.Protocol) > 0 {
		stem += "-" + res.Volume.Meta.Protocol
	}
	return utils.MakeSaveableFileName(stem) + res.Suffix
}
