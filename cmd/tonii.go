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

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pvconv/pvconv/core/utils"
	dataConvert "github.com/pvconv/pvconv/data-convert"
	"github.com/pvconv/pvconv/data-convert/convertModels"
)

var (
	toniiScanIDs      []int
	toniiRecoIDs      []int
	toniiOutDir       string
	toniiScaleMode    string
	toniiFormat       string
	toniiPlugin       string
	toniiPluginConfig []string
	toniiNoGz         bool
	toniiNoSidecar    bool
)

var toniiCmd = &cobra.Command{
	Use:   "tonii <study>",
	Short: "Convert a study's scans to NIfTI-1",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildConvertOptions()
		if err != nil {
			return err
		}

		sel := convertModels.Selection{Scans: toniiScanIDs, Recos: toniiRecoIDs}
		results, err := dataConvert.ConvertPath(args[0], sel, opts, makeLogger())
		if err != nil {
			return err
		}

		fmt.Printf("Converted %v image(s)\n", len(results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toniiCmd)

	toniiCmd.Flags().IntSliceVarP(&toniiScanIDs, "scan", "s", nil, "Scan ids to convert (default all)")
	toniiCmd.Flags().IntSliceVarP(&toniiRecoIDs, "reco", "r", nil, "Reco ids to convert (default all)")
	toniiCmd.Flags().StringVarP(&toniiOutDir, "output", "o", ".", "Output directory")
	toniiCmd.Flags().StringVarP(&toniiScaleMode, "scale-mode", "m", "", "Intensity scaling: header|apply|none")
	toniiCmd.Flags().StringVar(&toniiFormat, "format", "", "Force a dataset converter by name")
	toniiCmd.Flags().StringVar(&toniiPlugin, "plugin", "", "Metadata filter to run before sidecar writes")
	toniiCmd.Flags().StringSliceVar(&toniiPluginConfig, "plugin-config", nil, "key=value settings for the filter (repeatable)")
	toniiCmd.Flags().BoolVar(&toniiNoGz, "no-gz", false, "Write .nii instead of .nii.gz")
	toniiCmd.Flags().BoolVar(&toniiNoSidecar, "no-sidecar", false, "Skip JSON sidecar files")
}

// buildConvertOptions merges flags over the config file defaults
func buildConvertOptions() (convertModels.Options, error) {
	opts := convertModels.Options{
		OutDir:   toniiOutDir,
		Compress: !toniiNoGz,
		Sidecar:  !toniiNoSidecar,
		Format:   toniiFormat,
		Plugin:   toniiPlugin,
	}

	modeName := toniiScaleMode
	if len(modeName) <= 0 {
		modeName = viper.GetString("convert.scalemode")
	}
	if len(modeName) > 0 {
		mode, err := convertModels.ParseScaleMode(modeName)
		if err != nil {
			return opts, err
		}
		opts.ScaleMode = mode
	}

	if len(toniiPluginConfig) > 0 {
		config, err := utils.ParseKeyValuePairs(toniiPluginConfig)
		if err != nil {
			return opts, err
		}
		opts.PluginConfig = config
	}

	return opts, nil
}
