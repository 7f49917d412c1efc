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

// Package cmd is the pvconv command tree. Config comes from
// $HOME/.pvconv/config.yaml (overridable with --config and PVCONV_*
// env vars), everything can also be set per invocation with flags.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pvconv/pvconv/core/logger"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvconv",
	Short: "Convert Bruker ParaVision studies to NIfTI",
	Long: `pvconv converts Bruker ParaVision studies to NIfTI-1 images:
  pvconv info <study>
  pvconv tonii <study> -o out/
  pvconv bids build <study> -o bids/
  pvconv archive add <study>
  pvconv preview <study> -s 3 -o out.png
  `,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvconv/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	viper.SetEnvPrefix("pvconv")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot find home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(filepath.Join(home, ".pvconv"))
		viper.SetConfigName("config")
	}

	// Missing config file is fine, everything has defaults and flags
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Printf("Using config file: %v\n", viper.ConfigFileUsed())
	}
}

// makeLogger builds the logger commands run with. --verbose wins over the
// loglevel config key.
func makeLogger() logger.ILogger {
	level := logger.LogInfo
	if name := viper.GetString("loglevel"); len(name) > 0 {
		if parsed, err := logger.ParseLogLevel(name); err == nil {
			level = parsed
		}
	}
	if verbose {
		level = logger.LogDebug
	}

	log := &logger.StdErrLogger{}
	log.SetLogLevel(level)
	return log
}
