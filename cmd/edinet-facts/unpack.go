// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/edinet-facts/internal/unpack"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack [archives...]",
	Short: "Extract filing CSVs from downloaded archives",
	Long: `Unpack opens each archive (all *.zip in the archive directory when none
are named), extracts the annual report CSV under the member prefix and
writes it to the CSV directory under the archive's name. Archives are
deleted after a successful extraction unless --keep is given.`,
	RunE: runUnpack,
}

func init() {
	unpackCmd.Flags().String("zip-dir", "", "directory holding archives")
	unpackCmd.Flags().String("csv-dir", "", "directory for extracted CSVs")
	unpackCmd.Flags().String("member-prefix", "", "archive member path prefix")
	unpackCmd.Flags().Bool("keep", false, "keep archives after extraction")

	rootCmd.AddCommand(unpackCmd)
}

func runUnpack(cmd *cobra.Command, args []string) error {
	cfg := appCfg.Unpack
	stringFlag(cmd, "zip-dir", &cfg.ZipDir)
	stringFlag(cmd, "csv-dir", &cfg.CSVDir)
	stringFlag(cmd, "member-prefix", &cfg.MemberPrefix)
	boolFlag(cmd, "keep", &cfg.KeepArchives)

	u := unpack.New(cfg, appLog)
	var result unpack.BatchResult
	if len(args) > 0 {
		result = u.Paths(args, os.Stdout)
	} else {
		var err error
		if result, err = u.Dir(os.Stdout); err != nil {
			return err
		}
	}
	if result.HasFailures() {
		return fmt.Errorf("%d archive(s) failed to unpack", result.Failed)
	}
	return nil
}
