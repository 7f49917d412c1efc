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
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pvconv/pvconv/core/awsutil"
	"github.com/pvconv/pvconv/core/fileaccess"
	"github.com/pvconv/pvconv/core/timestamper"
	datasetArchive "github.com/pvconv/pvconv/dataset-archive"
)

var archiveFetchDest string

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Keep zipped study snapshots in a local or S3 archive",
	Long: `Keep zipped study snapshots with a checksum catalog:
  pvconv archive add <study dir>
  pvconv archive list [study id]
  pvconv archive verify <study id>
  pvconv archive fetch <study id> -o restored/

The archive store is configured with archive.root (local directory) or
archive.bucket (S3), the catalog sqlite file with archive.catalog.`,
}

var archiveAddCmd = &cobra.Command{
	Use:   "add <study>",
	Short: "Zip a study directory into the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arch, closer, err := makeArchiver()
		if err != nil {
			return err
		}
		defer closer()

		snap, added, err := arch.Add(args[0])
		if err != nil {
			return err
		}

		if added {
			fmt.Printf("Archived %v as snapshot %v (%v bytes)\n", snap.StudyID, snap.SnapshotID, snap.SizeBytes)
		} else {
			fmt.Printf("Study %v unchanged since snapshot %v, nothing stored\n", snap.StudyID, snap.SnapshotID)
		}
		return nil
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list [study id]",
	Short: "List archived snapshots",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arch, closer, err := makeArchiver()
		if err != nil {
			return err
		}
		defer closer()

		studyID := ""
		if len(args) > 0 {
			studyID = args[0]
		}

		snaps, err := arch.List(studyID)
		if err != nil {
			return err
		}

		if len(snaps) <= 0 {
			fmt.Println("No snapshots archived")
			return nil
		}

		for _, snap := range snaps {
			fmt.Printf("%v  %v  %v  %10d bytes  %v\n",
				timestamper.StampToPathSegment(snap.ArchivedAt), snap.SnapshotID, snap.StudyID, snap.SizeBytes, snap.SHA256[:12])
		}
		return nil
	},
}

var archiveVerifyCmd = &cobra.Command{
	Use:   "verify <study id>",
	Short: "Re-hash stored zips against the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arch, closer, err := makeArchiver()
		if err != nil {
			return err
		}
		defer closer()

		results, err := arch.Verify(args[0])
		if err != nil {
			return err
		}
		if len(results) <= 0 {
			return errors.Errorf("no archived snapshots for study %v", args[0])
		}

		failed := 0
		for _, res := range results {
			status := "OK"
			if !res.OK {
				status = "FAILED: " + res.Detail
				failed++
			}
			fmt.Printf("%v  %v\n", res.Snapshot.SnapshotID, status)
		}

		if failed > 0 {
			return errors.Errorf("%v of %v snapshot(s) failed verification", failed, len(results))
		}
		fmt.Printf("All %v snapshot(s) verified\n", len(results))
		return nil
	},
}

var archiveFetchCmd = &cobra.Command{
	Use:   "fetch <study id>",
	Short: "Restore the most recent snapshot of a study",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arch, closer, err := makeArchiver()
		if err != nil {
			return err
		}
		defer closer()

		restored, err := arch.Fetch(args[0], archiveFetchDest)
		if err != nil {
			return err
		}

		fmt.Printf("Restored to %v\n", restored)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveAddCmd)
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveVerifyCmd)
	archiveCmd.AddCommand(archiveFetchCmd)

	archiveFetchCmd.Flags().StringVarP(&archiveFetchDest, "output", "o", ".", "Directory to restore into")
}

// makeArchiver wires the configured store + catalog. The returned closer
// releases the catalog.
func makeArchiver() (*datasetArchive.Archiver, func(), error) {
	log := makeLogger()

	bucket := viper.GetString("archive.bucket")
	root := viper.GetString("archive.root")

	var store fileaccess.FileAccess
	var storeName string
	catalogPath := viper.GetString("archive.catalog")

	if len(bucket) > 0 {
		sess, err := awsutil.GetSession()
		if err != nil {
			return nil, nil, err
		}
		s3Api, err := awsutil.GetS3(sess)
		if err != nil {
			return nil, nil, err
		}
		s3Access := fileaccess.MakeS3Access(s3Api)
		store = &s3Access
		storeName = bucket

		if len(catalogPath) <= 0 {
			return nil, nil, errors.New("archive.catalog must be set when archiving to S3")
		}
	} else {
		if len(root) <= 0 {
			root = "pvconv-archive"
		}
		if err := os.MkdirAll(root, 0777); err != nil {
			return nil, nil, err
		}
		store = &fileaccess.FSAccess{}
		storeName = root

		if len(catalogPath) <= 0 {
			catalogPath = filepath.Join(root, "catalog.db")
		}
	}

	catalog, err := datasetArchive.OpenCatalog(catalogPath)
	if err != nil {
		return nil, nil, err
	}

	arch := datasetArchive.MakeArchiver(store, storeName, catalog, &timestamper.UnixTimeNowStamper{}, log)
	return arch, func() { catalog.Close() }, nil
}
