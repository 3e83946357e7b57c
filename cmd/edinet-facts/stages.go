// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/pdiddy/edinet-facts/internal/chart"
	"github.com/pdiddy/edinet-facts/internal/index"
	"github.com/pdiddy/edinet-facts/internal/registry"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

// openRegistry loads the concept table and logs tag conflicts.
func openRegistry(cfg types.Config) (*registry.Registry, error) {
	reg, err := registry.Open(cfg.Extraction.RegistryFile)
	if err != nil {
		return nil, err
	}
	for _, c := range reg.Conflicts() {
		appLog.Warn("tag pair claimed by two concepts", "tag", c.Tag.String(), "winner", c.Winner, "loser", c.Loser)
	}
	return reg, nil
}

// openIndex opens and loads the configured security-code index.
func openIndex(ctx context.Context, cfg types.Config) (index.Store, error) {
	store, err := index.Open(cfg.Index)
	if err != nil {
		return nil, err
	}
	if err := store.Load(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("loading index: %w", err)
	}
	return store, nil
}

// newRenderer returns nil when charts are disabled.
func newRenderer(cfg types.Config, enabled bool) (*chart.Renderer, error) {
	if !enabled {
		return nil, nil
	}
	return chart.New(cfg.Chart, appLog)
}
