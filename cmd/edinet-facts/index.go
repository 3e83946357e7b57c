// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/edinet-facts/internal/index"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect or export the security-code index",
	Long: `Index reads the security-code index that extract maintains: for each
listing code, the JSON records written for that company.`,
}

var indexShowCmd = &cobra.Command{
	Use:   "show [codes...]",
	Short: "List index entries",
	RunE:  runIndexShow,
}

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the index as YAML or JSON",
	RunE:  runIndexExport,
}

func init() {
	indexCmd.PersistentFlags().String("backend", "", "index backend: json, sqlite or memory")
	indexCmd.PersistentFlags().String("index-path", "", "index file or database")

	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	indexExportCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	indexCmd.AddCommand(indexShowCmd)
	indexCmd.AddCommand(indexExportCmd)
	rootCmd.AddCommand(indexCmd)
}

func indexConfig(cmd *cobra.Command) types.Config {
	cfg := appCfg
	if cmd.Flags().Changed("backend") {
		b, _ := cmd.Flags().GetString("backend")
		cfg.Index.Backend = types.IndexBackend(b)
	}
	stringFlag(cmd, "index-path", &cfg.Index.Path)
	return cfg
}

func runIndexShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, err := openIndex(ctx, indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	codes := args
	if len(codes) == 0 {
		snap, err := store.Snapshot(ctx)
		if err != nil {
			return err
		}
		codes = index.Codes(snap)
	}
	if len(codes) == 0 {
		fmt.Println("Index is empty.")
		return nil
	}
	for _, code := range codes {
		code = strings.ToUpper(code)
		paths, err := store.Paths(ctx, code)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Printf("%s: (not indexed)\n", code)
			continue
		}
		fmt.Printf("%s:\n", code)
		for _, p := range paths {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	var export func(context.Context, index.Store, io.Writer) error
	switch strings.ToLower(format) {
	case "yaml", "yml":
		export = index.ExportYAML
	case "json":
		export = index.ExportJSON
	default:
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}

	ctx := context.Background()
	store, err := openIndex(ctx, indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	if output == "" {
		return export(ctx, store, os.Stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	if err := export(ctx, store, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", output, err)
	}
	fmt.Fprintf(os.Stderr, "exported index to %s\n", output)
	return nil
}
