// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one security code and its record paths.
type ExportEntry struct {
	Code  string   `json:"code" yaml:"code"`
	Paths []string `json:"paths" yaml:"paths"`
}

// Entries returns the index as a list sorted by code.
func Entries(ctx context.Context, s Store) ([]ExportEntry, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index for export: %w", err)
	}
	entries := make([]ExportEntry, 0, len(snap))
	for _, code := range Codes(snap) {
		entries = append(entries, ExportEntry{Code: code, Paths: snap[code]})
	}
	return entries, nil
}

// ExportYAML writes the index to w as a YAML list.
func ExportYAML(ctx context.Context, s Store, w io.Writer) error {
	entries, err := Entries(ctx, s)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the index to w in the on-disk object form.
func ExportJSON(ctx context.Context, s Store, w io.Writer) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("reading index for export: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
