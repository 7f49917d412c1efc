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
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pvconv/pvconv/pvdataset"
)

var infoScanIDs []int

var infoCmd = &cobra.Command{
	Use:   "info <study>",
	Short: "Summarise a study: subject header, then scans and recos",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := pvdataset.Open(args[0], makeLogger())
		if err != nil {
			return err
		}
		defer ds.Close()

		printStudyInfo(os.Stdout, ds, infoScanIDs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().IntSliceVarP(&infoScanIDs, "scan", "s", nil, "Only show these scan ids (repeatable)")
}

func printStudyInfo(w io.Writer, ds *pvdataset.Dataset, scanIDs []int) {
	info := ds.Info()

	title := "ParaVision " + info.ParaVision
	fmt.Fprintf(w, "\n%v\n%v\n", title, strings.Repeat("-", len(title)))

	header := [][2]string{
		{"UserAccount", info.UserAccount},
		{"Date", info.Date},
		{"SubjectID", info.SubjectID},
		{"SubjectName", info.SubjectName},
		{"SessionID", info.SessionID},
		{"StudyNumber", info.StudyNumber},
		{"SubjectType", info.SubjectType},
		{"Sex", info.Sex},
		{"Weight", formatWeight(info.Weight, info.ParaVision)},
		{"DOB", info.DOB},
		{"Entry", info.Entry},
		{"Position", info.Position},
	}

	for _, kv := range header {
		if len(kv[1]) > 0 {
			fmt.Fprintf(w, "%v: %v\n", padKey(kv[0], 12), kv[1])
		}
	}

	fmt.Fprintf(w, "\n[ScanID] Protocol :: Sequence :: [Parameters]\n")

	for _, scanID := range ds.ScanIDs() {
		if !wantScanID(scanIDs, scanID) {
			continue
		}

		scan, err := ds.Scan(scanID)
		if err != nil {
			fmt.Fprintf(w, "[%02d]   <unreadable: %v>\n", scanID, err)
			continue
		}

		printScanInfo(w, scan)
	}
}

func printScanInfo(w io.Writer, scan *pvdataset.Scan) {
	info := scan.Info()
	fmt.Fprintf(w, "[%02d]   %v :: %v ::\n", scan.ID, info.Protocol, info.Sequence)

	params := []string{}
	if len(info.TRms) > 0 {
		params = append(params, "TR: "+formatFloats(info.TRms, 2, ", ")+" ms")
	}
	if len(info.TEms) > 0 {
		params = append(params, "TE: "+formatFloats(info.TEms, 2, ", ")+" ms")
	}
	if info.FlipAngle > 0 {
		params = append(params, fmt.Sprintf("FlipAngle: %g degree", info.FlipAngle))
	}
	if info.EffBWHz > 0 {
		params = append(params, fmt.Sprintf("EffBW: %.2f Hz", info.EffBWHz))
	}
	if len(params) > 0 {
		fmt.Fprintf(w, "       [ %v ]\n", strings.Join(params, ", "))
	}

	for _, recoID := range scan.RecoIDs() {
		reco, err := scan.Reco(recoID)
		if err != nil {
			continue
		}
		printRecoInfo(w, recoID, reco)
	}
}

func printRecoInfo(w io.Writer, recoID int, reco *pvdataset.Reco) {
	info := reco.Info()

	fields := []string{}
	if len(info.MatrixSize) > 0 {
		fields = append(fields, "MatrixSize: "+formatInts(info.MatrixSize, " x "))
	}
	if len(info.ResolutionMm) > 0 {
		fields = append(fields, "Resolution: "+formatFloats(info.ResolutionMm, 3, " x ")+" (mm)")
	}
	if len(info.NumSlices) > 0 {
		fields = append(fields, "NumSlices: "+formatInts(info.NumSlices, ", "))
	}
	if info.SlicePacks > 1 {
		fields = append(fields, fmt.Sprintf("NumSlicePack: %v", info.SlicePacks))
	}
	if info.TemporalResolMs > 0 {
		fields = append(fields, fmt.Sprintf("TemporalResol: %.2f (s)", info.TemporalResolMs/1000))
	}
	if len(info.DimDesc) > 0 {
		caps := []string{}
		for _, d := range info.DimDesc {
			caps = append(caps, capitalize(d))
		}
		fields = append(fields, "dimDescription: "+strings.Join(caps, " x "))
	}
	if len(info.SliceDistancesMm) > 1 {
		fields = append(fields, "SliceDistances: "+formatFloats(info.SliceDistancesMm, 3, ", ")+" (mm)")
	}

	fmt.Fprintf(w, "  [%02d] %v\n", recoID, strings.Join(fields, ", "))
}

// formatWeight renders the subject weight in grams. ParaVision 5 stored
// grams, 6 and 360 store kg, so the stored value is scaled by the major
// version.
func formatWeight(weight float64, pvVersion string) string {
	if weight <= 0 {
		return ""
	}

	scale := 1.0
	if major, err := strconv.Atoi(strings.SplitN(pvVersion, ".", 2)[0]); err == nil && major > 5 {
		scale = 1000
	}
	return fmt.Sprintf("%.2f g", weight*scale)
}

func formatFloats(vals []float64, decimals int, sep string) string {
	parts := []string{}
	for _, v := range vals {
		parts = append(parts, strconv.FormatFloat(v, 'f', decimals, 64))
	}
	return strings.Join(parts, sep)
}

func capitalize(s string) string {
	if len(s) <= 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatInts(vals []int, sep string) string {
	parts := []string{}
	for _, v := range vals {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, sep)
}

func padKey(key string, width int) string {
	if len(key) < width {
		return key + strings.Repeat(" ", width-len(key))
	}
	return key
}

func wantScanID(ids []int, id int) bool {
	if len(ids) <= 0 {
		return true
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
