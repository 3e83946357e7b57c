// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/pdiddy/edinet-facts/internal/chart"
	"github.com/pdiddy/edinet-facts/internal/index"
	"github.com/pdiddy/edinet-facts/internal/registry"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

// --- test helpers ---

func writeExport(t *testing.T, dir, name string, rows ...[4]string) string {
	t.Helper()
	lines := []string{"要素ID\tコンテキストID\t単位\t値"}
	for _, r := range rows {
		lines = append(lines, strings.Join([]string{r[0], r[1], r[3], r[2]}, "\t"))
	}
	text := strings.Join(lines, "\r\n") + "\r\n"
	enc, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(text)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(enc), 0o644))
	return path
}

// acmeRows is a GAAP filing with a name, a period end and sales only.
var acmeRows = [][4]string{
	{"jpcrp_cor:CompanyNameCoverPage", "FilingDateInstant", "ACME", "－"},
	{"jpdei_cor:CurrentPeriodEndDateDEI", "FilingDateInstant", "2024-03-31", "－"},
	{"jppfs_cor:NetSales", "CurrentYearDuration", "500000000", "円"},
}

func testConfig(t *testing.T) types.Config {
	t.Helper()
	cfg := types.DefaultConfig()
	root := t.TempDir()
	cfg.Extraction.CSVDir = filepath.Join(root, "csv")
	cfg.Extraction.JSONDir = filepath.Join(root, "json_file")
	cfg.Chart.Dir = filepath.Join(root, "charts")
	require.NoError(t, os.MkdirAll(cfg.Extraction.CSVDir, 0o755))
	return cfg
}

type failingSaveStore struct {
	*index.MemoryStore
}

func (failingSaveStore) Save(context.Context) error { return errors.New("disk full") }

// cancelOnUpsert cancels the batch context after its first upsert.
type cancelOnUpsert struct {
	*index.JSONStore
	cancel context.CancelFunc
}

func (s cancelOnUpsert) Upsert(ctx context.Context, code, path string) error {
	defer s.cancel()
	return s.JSONStore.Upsert(ctx, code, path)
}

// --- ProcessDir ---

func TestProcessDir_IsolatesFailures(t *testing.T) {
	cfg := testConfig(t)
	writeExport(t, cfg.Extraction.CSVDir, "7203_S100ABC.csv", acmeRows...)
	bad := filepath.Join(cfg.Extraction.CSVDir, "9999_S100BAD.csv")
	require.NoError(t, os.WriteFile(bad, []byte("not\ta\texport\n"), 0o644))

	store := index.NewMemoryStore()
	p := New(registry.Default(), store, nil, cfg, nil)

	var out bytes.Buffer
	result, err := p.ProcessDir(context.Background(), cfg.Extraction.CSVDir, &out)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, result.HasFailures())
	assert.Equal(t, 2, result.Total())

	text := out.String()
	assert.Contains(t, text, "failed:  9999_S100BAD.csv")
	assert.Contains(t, text, "saved:   7203_S100ABC.csv")
	assert.Contains(t, text, "material indicator 純資産 (NetAssets) not found")
	assert.NotContains(t, text, "(Sales) not found")
	assert.Contains(t, text, "Batch summary: 1 processed, 1 failed (total: 2)")
	assert.Contains(t, text, "Companies missing material indicators: 1")
	assert.Contains(t, text, "ACME 2024-03-31 [7203]")

	require.Len(t, result.Results, 1)
	fr := result.Results[0]
	assert.Equal(t, filepath.Join(cfg.Extraction.JSONDir, "ACME2024-03-31.json"), fr.JSONPath)
	assert.FileExists(t, fr.JSONPath)
	assert.False(t, fr.Report.IsIFRS)
	assert.Empty(t, fr.ChartPath)

	paths, err := store.Paths(context.Background(), "7203")
	require.NoError(t, err)
	assert.Equal(t, []string{fr.JSONPath}, paths)
}

func TestProcessDir_Empty(t *testing.T) {
	cfg := testConfig(t)
	p := New(registry.Default(), index.NewMemoryStore(), nil, cfg, nil)

	var out bytes.Buffer
	result, err := p.ProcessDir(context.Background(), cfg.Extraction.CSVDir, &out)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total())
	assert.Contains(t, out.String(), "no CSV files found")
}

// --- ProcessFiling ---

func TestProcessFiling_WithChartAndJSONIndex(t *testing.T) {
	cfg := testConfig(t)
	path := writeExport(t, cfg.Extraction.CSVDir, "7203_S100ABC.csv", acmeRows...)

	renderer, err := chart.New(types.ChartConfig{Width: 200, Height: 150}, nil)
	require.NoError(t, err)
	indexPath := filepath.Join(t.TempDir(), "sec_codes.json")
	store := index.NewJSONStore(indexPath)
	require.NoError(t, store.Load(context.Background()))

	p := New(registry.Default(), store, renderer, cfg, nil)
	fr, err := p.ProcessFiling(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.Chart.Dir, "ACME2024-03-31.png"), fr.ChartPath)
	assert.FileExists(t, fr.ChartPath)
	assert.Equal(t, "7203", fr.Record.SecurityCode)

	// Upserts are pending until Save.
	assert.NoFileExists(t, indexPath)
	require.NoError(t, store.Save(context.Background()))
	assert.FileExists(t, indexPath)
}

func TestProcessFiling_ChartFailureKeepsRecord(t *testing.T) {
	cfg := testConfig(t)
	path := writeExport(t, cfg.Extraction.CSVDir, "7203_S100ABC.csv", acmeRows...)
	// A regular file where the chart directory should be.
	cfg.Chart.Dir = filepath.Join(t.TempDir(), "charts")
	require.NoError(t, os.WriteFile(cfg.Chart.Dir, nil, 0o644))

	renderer, err := chart.New(types.ChartConfig{Width: 200, Height: 150}, nil)
	require.NoError(t, err)
	store := index.NewMemoryStore()
	p := New(registry.Default(), store, renderer, cfg, nil)

	var out bytes.Buffer
	result, err := p.ProcessPaths(context.Background(), []string{path}, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Failed)

	fr := result.Results[0]
	assert.Error(t, fr.ChartErr)
	assert.Empty(t, fr.ChartPath)
	assert.FileExists(t, fr.JSONPath)
	assert.Contains(t, out.String(), "chart not rendered")
	assert.Contains(t, out.String(), "Companies missing material indicators: 1")

	paths, err := store.Paths(context.Background(), "7203")
	require.NoError(t, err)
	assert.Equal(t, []string{fr.JSONPath}, paths)
}

func TestProcessFiling_NoSecurityCode(t *testing.T) {
	cfg := testConfig(t)
	path := writeExport(t, cfg.Extraction.CSVDir, "filing.csv", acmeRows...)
	store := index.NewMemoryStore()

	fr, err := New(registry.Default(), store, nil, cfg, nil).ProcessFiling(context.Background(), path)
	require.NoError(t, err)
	assert.FileExists(t, fr.JSONPath)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestProcessFiling_MissingFile(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(registry.Default(), index.NewMemoryStore(), nil, cfg, nil).
		ProcessFiling(context.Background(), filepath.Join(cfg.Extraction.CSVDir, "nope.csv"))
	assert.Error(t, err)
}

// --- ProcessPaths ---

func TestProcessPaths_SaveFailure(t *testing.T) {
	cfg := testConfig(t)
	path := writeExport(t, cfg.Extraction.CSVDir, "7203_S100ABC.csv", acmeRows...)
	p := New(registry.Default(), failingSaveStore{index.NewMemoryStore()}, nil, cfg, nil)

	var out bytes.Buffer
	result, err := p.ProcessPaths(context.Background(), []string{path}, &out)
	require.Error(t, err)
	assert.ErrorContains(t, err, "saving index")
	assert.Equal(t, 1, result.Processed)
	assert.Contains(t, out.String(), "Batch summary")
}

func TestProcessPaths_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	path := writeExport(t, cfg.Extraction.CSVDir, "7203_S100ABC.csv", acmeRows...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(registry.Default(), index.NewMemoryStore(), nil, cfg, nil).
		ProcessPaths(ctx, []string{path}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Total())
}

func TestProcessPaths_CancelledSavesIndex(t *testing.T) {
	cfg := testConfig(t)
	first := writeExport(t, cfg.Extraction.CSVDir, "7203_S100ABC.csv", acmeRows...)
	second := writeExport(t, cfg.Extraction.CSVDir, "6758_S100DEF.csv", acmeRows...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	indexPath := filepath.Join(t.TempDir(), "sec_codes.json")
	store := cancelOnUpsert{JSONStore: index.NewJSONStore(indexPath), cancel: cancel}

	var out bytes.Buffer
	result, err := New(registry.Default(), store, nil, cfg, nil).
		ProcessPaths(ctx, []string{first, second}, &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Processed)
	assert.Contains(t, out.String(), "Batch summary: 1 processed, 0 failed (total: 1)")

	reloaded := index.NewJSONStore(indexPath)
	require.NoError(t, reloaded.Load(context.Background()))
	snap, err := reloaded.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap["7203"], 1)
	assert.NotContains(t, snap, "6758")
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		rec  *types.CompanyRecord
		want string
	}{
		{"nil", nil, "(unknown)"},
		{"full", &types.CompanyRecord{CompanyName: "ACME", PeriodEnd: "2024-03-31", SecurityCode: "7203"}, "ACME 2024-03-31 [7203]"},
		{"source only", &types.CompanyRecord{SourcePath: "/tmp/x.csv"}, "x.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.rec))
		})
	}
}
