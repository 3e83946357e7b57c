// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "List the concepts and tag pairs the extractor recognizes",
	RunE:  runRegistry,
}

func init() {
	registryCmd.Flags().String("registry", "", "YAML concept table replacing the built-in one")
	registryCmd.Flags().Bool("tags", false, "list every tag pair")
	registryCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(registryCmd)
}

func runRegistry(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	stringFlag(cmd, "registry", &cfg.Extraction.RegistryFile)
	showTags, _ := cmd.Flags().GetBool("tags")
	asJSON, _ := cmd.Flags().GetBool("json")

	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defs := reg.Definitions()

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(defs)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONCEPT\tLABEL\tSTANDARD\tINDICATOR\tTAGS")
	for _, d := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", d.Concept, d.Label, d.Standard, d.Indicator, len(d.Tags))
		if showTags {
			for _, t := range d.Tags {
				fmt.Fprintf(tw, "\t  %s\t\t\t\n", t.String())
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if n := len(reg.Conflicts()); n > 0 {
		fmt.Printf("\n%d tag pair(s) claimed by more than one concept; first definition wins.\n", n)
	}
	return nil
}
