// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/edinet-facts/internal/audit"
	"github.com/pdiddy/edinet-facts/internal/record"
)

var chartCmd = &cobra.Command{
	Use:   "chart <record.json>...",
	Short: "Render charts from stored JSON records",
	Long: `Chart reads stored records and renders each as a PNG chart of total assets,
liabilities, net assets and the income statement. The accounting standard
is detected from the record. Bare names are looked up in the JSON
directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChart,
}

func init() {
	chartCmd.Flags().String("json-dir", "", "directory holding JSON records")
	chartCmd.Flags().String("chart-dir", "", "directory for rendered charts")
	chartCmd.Flags().String("font", "", "TrueType font with Japanese glyphs")
	chartCmd.Flags().Int("width", 0, "image width in pixels")
	chartCmd.Flags().Int("height", 0, "image height in pixels")

	rootCmd.AddCommand(chartCmd)
}

func runChart(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	stringFlag(cmd, "json-dir", &cfg.Extraction.JSONDir)
	stringFlag(cmd, "chart-dir", &cfg.Chart.Dir)
	stringFlag(cmd, "font", &cfg.Chart.FontFile)
	intFlag(cmd, "width", &cfg.Chart.Width)
	intFlag(cmd, "height", &cfg.Chart.Height)

	renderer, err := newRenderer(cfg, true)
	if err != nil {
		return err
	}

	var failed int
	for _, arg := range args {
		path := arg
		if _, err := os.Stat(path); err != nil {
			if path, err = record.Resolve(cfg.Extraction.JSONDir, arg); err != nil {
				fmt.Printf("failed:  %s (%v)\n", arg, err)
				failed++
				continue
			}
		}
		rec, err := record.Read(path)
		if err != nil {
			fmt.Printf("failed:  %s (%v)\n", arg, err)
			failed++
			continue
		}
		out, err := renderer.RenderFile(rec, audit.IsIFRS(rec), cfg.Chart.Dir, filepath.Base(path))
		if err != nil {
			fmt.Printf("failed:  %s (%v)\n", arg, err)
			failed++
			continue
		}
		fmt.Printf("rendered: %s -> %s\n", filepath.Base(path), out)
	}
	if failed > 0 {
		return fmt.Errorf("%d chart(s) failed", failed)
	}
	return nil
}
