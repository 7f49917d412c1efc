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
	"image"
	"strings"

	"github.com/spf13/cobra"

	dataConvert "github.com/pvconv/pvconv/data-convert"
	"github.com/pvconv/pvconv/data-convert/convertModels"
	"github.com/pvconv/pvconv/preview"
)

var (
	previewScanID    int
	previewRecoID    int
	previewOutPath   string
	previewSliceIdx  int
	previewTileWidth int
)

var previewCmd = &cobra.Command{
	Use:   "preview <study>",
	Short: "Render a scan as a PNG slice mosaic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := makeLogger()

		sel := convertModels.Selection{Scans: []int{previewScanID}}
		if previewRecoID > 0 {
			sel.Recos = []int{previewRecoID}
		}

		// Bake the scaling in so windowing sees real values
		opts := convertModels.Options{ScaleMode: convertModels.ScaleModeApply}
		results, err := dataConvert.Import(args[0], sel, opts, log)
		if err != nil {
			return err
		}

		vol := results[0].Volume

		var img image.Image
		if previewSliceIdx >= 0 {
			img, err = preview.RenderSlice(vol, previewSliceIdx, 0)
		} else {
			img, err = preview.RenderMosaic(vol, preview.Options{TileWidth: previewTileWidth})
		}
		if err != nil {
			return err
		}

		outPath := previewOutPath
		if len(outPath) <= 0 {
			outPath = fmt.Sprintf("%v-%v-%v", vol.Meta.StudyName, results[0].ScanID, results[0].RecoID)
		}
		if err := preview.SavePNG(img, outPath); err != nil {
			return err
		}

		if !strings.HasSuffix(outPath, ".png") {
			outPath += ".png"
		}
		fmt.Printf("Wrote %v\n", outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().IntVarP(&previewScanID, "scan", "s", 0, "Scan id to render")
	previewCmd.Flags().IntVarP(&previewRecoID, "reco", "r", 0, "Reco id (default first)")
	previewCmd.Flags().StringVarP(&previewOutPath, "output", "o", "", "Output PNG path")
	previewCmd.Flags().IntVar(&previewSliceIdx, "slice", -1, "Render just this slice instead of a mosaic")
	previewCmd.Flags().IntVar(&previewTileWidth, "tile-width", 0, "Scale mosaic tiles to this width")
	previewCmd.MarkFlagRequired("scan")
}
