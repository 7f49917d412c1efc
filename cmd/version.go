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

	dataConvert "github.com/pvconv/pvconv/data-convert"
)

var versionClean bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pvconv version",
	Run: func(cmd *cobra.Command, args []string) {
		if versionClean {
			fmt.Printf("%v\n", dataConvert.ToolVersion)
		} else {
			fmt.Printf("pvconv %v\n", dataConvert.ToolVersion)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionClean, "clean", false, "Just write the version number")
}
