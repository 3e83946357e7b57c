// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pdiddy/edinet-facts/internal/pipeline"
	"github.com/pdiddy/edinet-facts/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web front end",
	Long: `Serve starts an HTTP server for browsing stored records, viewing their
completeness report, rendering charts on demand and uploading filing
exports for extraction.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address")
	serveCmd.Flags().Duration("chart-ttl", 0, "lifetime of rendered charts")
	serveCmd.Flags().String("font", "", "TrueType font with Japanese glyphs for charts")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	stringFlag(cmd, "addr", &cfg.Server.Addr)
	durationFlag(cmd, "chart-ttl", &cfg.Server.ChartTTL)
	stringFlag(cmd, "font", &cfg.Chart.FontFile)

	if cfg.Log.Mode == "production" || cfg.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

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
	renderer, err := newRenderer(cfg, true)
	if err != nil {
		return err
	}

	// Uploads write records and index entries; charts are rendered on request.
	proc := pipeline.New(reg, store, nil, cfg, appLog)
	srv := server.New(server.Deps{
		Config:   cfg,
		Registry: reg,
		Store:    store,
		Pipeline: proc,
		Charts:   renderer,
		Log:      appLog,
	})
	return srv.Run(ctx, cfg.Server.Addr)
}
