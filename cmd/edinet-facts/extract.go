// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/edinet-facts/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract [exports...]",
	Short: "Extract, audit and store financial facts from filing CSVs",
	Long: `Extract reads each filing export (all *.csv in the CSV directory when none
are named), maps its rows onto the concept registry and writes one JSON
record per company. Every record is audited for missing facts under its
accounting standard, its security code is added to the index and, with
--chart, a chart is rendered next to it.

Companies missing a material indicator are listed in the batch summary.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("csv-dir", "", "directory scanned for filing exports")
	extractCmd.Flags().String("json-dir", "", "directory for JSON records")
	extractCmd.Flags().String("registry", "", "YAML concept table replacing the built-in one")
	extractCmd.Flags().Bool("chart", false, "render a chart for every record")
	extractCmd.Flags().String("chart-dir", "", "directory for rendered charts")
	extractCmd.Flags().String("font", "", "TrueType font with Japanese glyphs for charts")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	stringFlag(cmd, "csv-dir", &cfg.Extraction.CSVDir)
	stringFlag(cmd, "json-dir", &cfg.Extraction.JSONDir)
	stringFlag(cmd, "registry", &cfg.Extraction.RegistryFile)
	boolFlag(cmd, "chart", &cfg.Chart.Enabled)
	stringFlag(cmd, "chart-dir", &cfg.Chart.Dir)
	stringFlag(cmd, "font", &cfg.Chart.FontFile)

	ctx, cancel := signalContext()
	defer cancel()

	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	store, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	renderer, err := newRenderer(cfg, cfg.Chart.Enabled)
	if err != nil {
		return err
	}

	proc := pipeline.New(reg, store, renderer, cfg, appLog)
	var result pipeline.BatchResult
	if len(args) > 0 {
		result, err = proc.ProcessPaths(ctx, args, os.Stdout)
	} else {
		result, err = proc.ProcessDir(ctx, cfg.Extraction.CSVDir, os.Stdout)
	}
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d filing(s) failed extraction", result.Failed)
	}
	return nil
}
