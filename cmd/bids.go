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

	"github.com/pvconv/pvconv/bids"
	"github.com/pvconv/pvconv/data-convert/convertModels"
)

var (
	bidsRulesPath string
	bidsOutRoot   string
	bidsScaleMode string
	bidsNoGz      bool
	bidsInitPath  string
)

var bidsCmd = &cobra.Command{
	Use:   "bids",
	Short: "Lay converted studies out as a BIDS tree",
}

var bidsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter conversion rules file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bids.WriteRulesTemplate(bidsInitPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %v\n", bidsInitPath)
		return nil
	},
}

var bidsBuildCmd = &cobra.Command{
	Use:   "build <study>",
	Short: "Convert a study and write it into a BIDS layout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := makeLogger()

		rulesPath := bidsRulesPath
		if len(rulesPath) <= 0 {
			rulesPath = viper.GetString("bids.rules")
		}

		builder := bids.Builder{}
		if len(rulesPath) > 0 {
			rules, err := bids.LoadRules(rulesPath)
			if err != nil {
				return err
			}
			builder.Rules = rules
		}

		opts := convertModels.Options{
			Compress: !bidsNoGz,
			Sidecar:  true,
		}
		if len(bidsScaleMode) > 0 {
			mode, err := convertModels.ParseScaleMode(bidsScaleMode)
			if err != nil {
				return err
			}
			opts.ScaleMode = mode
		}

		result, err := builder.Build(args[0], bidsOutRoot, opts, log)
		if err != nil {
			return err
		}

		fmt.Printf("Wrote %v image(s) to %v", len(result.Written), result.Root)
		if len(result.Skipped) > 0 {
			fmt.Printf(", skipped %v unmatched scan(s)", len(result.Skipped))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bidsCmd)
	bidsCmd.AddCommand(bidsInitCmd)
	bidsCmd.AddCommand(bidsBuildCmd)

	bidsInitCmd.Flags().StringVarP(&bidsInitPath, "output", "o", "rules.yaml", "Where to write the template")

	bidsBuildCmd.Flags().StringVarP(&bidsOutRoot, "output", "o", "bids", "Layout root directory")
	bidsBuildCmd.Flags().StringVar(&bidsRulesPath, "rules", "", "Conversion rules file (default built-in rules)")
	bidsBuildCmd.Flags().StringVarP(&bidsScaleMode, "scale-mode", "m", "", "Intensity scaling: header|apply|none")
	bidsBuildCmd.Flags().BoolVar(&bidsNoGz, "no-gz", false, "Write .nii instead of .nii.gz")
}
