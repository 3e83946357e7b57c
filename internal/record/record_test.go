// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package record

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/edinet-facts/internal/extract"
	"github.com/pdiddy/edinet-facts/internal/registry"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

func sampleRecord() *types.CompanyRecord {
	return extract.New(registry.Default(), nil).Extract([]extract.Row{
		{ElementID: "jpcrp_cor:CompanyNameCoverPage", ContextID: "FilingDateInstant", Value: "ACME Corp", Unit: "－"},
		{ElementID: "jpdei_cor:CurrentPeriodEndDateDEI", ContextID: "FilingDateInstant", Value: "2024-03-31", Unit: "－"},
		{ElementID: "jpigp_cor:AssetsIFRS", ContextID: "CurrentYearInstant", Value: "1000000", Unit: "JPY"},
		{ElementID: "jpigp_cor:EquityIFRS", ContextID: "CurrentYearInstant", Value: "0", Unit: "JPY"},
		{ElementID: "jpigp_cor:OperatingProfitLossIFRS", ContextID: "CurrentYearDuration", Value: "-2500", Unit: "JPY"},
	})
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		rec  types.CompanyRecord
		want string
	}{
		{"company and date", types.CompanyRecord{CompanyName: "ACME Corp", PeriodEnd: "2024-03-31"}, "ACME Corp2024-03-31.json"},
		{"separator replaced", types.CompanyRecord{CompanyName: "A/B株式会社", PeriodEnd: "2024-03-31"}, "A／B株式会社2024-03-31.json"},
		{"fallback to source", types.CompanyRecord{SourcePath: "csv/72030_S100TEST.csv"}, "72030_S100TEST.json"},
		{"nothing known", types.CompanyRecord{}, "unnamed.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(&tt.rec))
		})
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec := sampleRecord()

	path, err := Write(dir, rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ACME Corp2024-03-31.json"), path)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, rec.Facts, got.Facts)
	assert.Equal(t, "ACME Corp", got.CompanyName)
	assert.Equal(t, "2024-03-31", got.PeriodEnd)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestMarshal_ObjectForm(t *testing.T) {
	data, err := Marshal(sampleRecord())
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `"IFRSAssets": {`)
	assert.Contains(t, text, `"value": 1000000`)
	assert.Contains(t, text, `"value": -1`)
	assert.Contains(t, text, `"value": "ACME Corp"`)
	assert.Contains(t, text, `"name": "資産(IFRS)"`, "non-ASCII must not be escaped")
	assert.Contains(t, text, `"ifrs_flag": 1`)
	assert.Contains(t, text, `"unit": ""`)
}

func TestDecode_LegacyArrayForm(t *testing.T) {
	data := `{
  "CompanyName": ["会社名", "ACME Corp", ""],
  "IFRSAssets": ["資産(IFRS)", 1000000, "JPY"],
  "Sales": ["売上高", -1, ""],
  "NetIncome": {"name": "当期純利益", "value": 42, "unit": "JPY", "ifrs_flag": 0}
}`
	facts, err := Decode([]byte(data))
	require.NoError(t, err)

	name, ok := facts["CompanyName"].Value.Text()
	require.True(t, ok)
	assert.Equal(t, "ACME Corp", name)

	assets := facts["IFRSAssets"]
	n, ok := assets.Value.Int()
	require.True(t, ok)
	assert.Equal(t, int64(1000000), n)
	assert.Equal(t, "JPY", assets.Unit)
	assert.Equal(t, 1, assets.IFRSFlag)

	assert.False(t, facts["Sales"].Value.IsSet())
	assert.Equal(t, 0, facts["Sales"].IFRSFlag)

	ni, _ := facts["NetIncome"].Value.Int()
	assert.Equal(t, int64(42), ni)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"short array", `{"Sales": ["売上高", 1]}`},
		{"bad value", `{"Sales": {"name": "売上高", "value": true}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestRead_NotFound(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve(t *testing.T) {
	dir := "/data/json"
	good, err := Resolve(dir, "ACME Corp2024-03-31.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ACME Corp2024-03-31.json"), good)

	for _, bad := range []string{"", "..", "../x.json", "a/b.json", `a\b.json`, "x.txt"} {
		_, err := Resolve(dir, bad)
		assert.ErrorIs(t, err, ErrInvalidName, bad)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"トヨタ2024-03-31.json", "ACME Corp2024-03-31.json", "acme2023-03-31.json", "notes.txt", ".record-1.tmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	all, err := List(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME Corp2024-03-31.json", "acme2023-03-31.json", "トヨタ2024-03-31.json"}, all)

	hits, err := List(dir, "ACME")
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = List(dir, "トヨタ")
	require.NoError(t, err)
	assert.Equal(t, []string{"トヨタ2024-03-31.json"}, hits)

	none, err := List(filepath.Join(dir, "missing"), "")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.False(t, strings.Contains(strings.Join(all, ","), "notes"))
}
