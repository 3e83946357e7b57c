// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/edinet-facts/pkg/types"
)

func TestFlatten(t *testing.T) {
	got := flatten("", map[string]any{
		"a": 1,
		"b": map[string]any{"c": "x", "d": map[string]any{"e": true}},
	})
	assert.Equal(t, map[string]any{"a": 1, "b.c": "x", "b.d.e": true}, got)
}

func TestRegisterDefaults(t *testing.T) {
	v := viper.New()
	require.NoError(t, registerDefaults(v, types.DefaultConfig()))

	assert.Equal(t, "json", v.GetString("index.backend"))
	assert.Equal(t, time.Second, v.GetDuration("edinet.request_interval"))
	assert.Equal(t, 60*time.Second, v.GetDuration("edinet.timeout"))
	assert.Equal(t, 900, v.GetInt("chart.width"))
	assert.True(t, v.IsSet("chart.font_file"))

	var cfg types.Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, types.DefaultConfig(), cfg)
}

func TestRegisterDefaults_EnvOverride(t *testing.T) {
	t.Setenv("EDINET_FACTS_INDEX_PATH", "other/index.db")
	t.Setenv("EDINET_FACTS_SERVER_CHART_TTL", "90s")
	t.Setenv("EDINET_FACTS_CHART_FONT_FILE", "/fonts/ipag.ttf")
	t.Setenv("EDINET_FACTS_EXTRACTION_REGISTRY_FILE", "/etc/concepts.yaml")

	v := viper.New()
	v.SetEnvPrefix("EDINET_FACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	require.NoError(t, registerDefaults(v, types.DefaultConfig()))

	cfg := types.DefaultConfig()
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, "other/index.db", cfg.Index.Path)
	assert.Equal(t, 90*time.Second, cfg.Server.ChartTTL)
	assert.Equal(t, "/fonts/ipag.ttf", cfg.Chart.FontFile)
	assert.Equal(t, "/etc/concepts.yaml", cfg.Extraction.RegistryFile)
	assert.Equal(t, "csv", cfg.Extraction.CSVDir)
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeYAML(&buf, types.DefaultConfig()))
	assert.Contains(t, buf.String(), "backend: json")

	var back types.Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, types.DefaultConfig(), back)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****", mask("abc"))
	assert.Equal(t, "ab****yz", mask("abcdefxyz"))
}

func TestDateRange(t *testing.T) {
	newCmd := func(flags map[string]string) *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().String("from", "", "")
		cmd.Flags().String("to", "", "")
		cmd.Flags().String("date", "", "")
		for k, v := range flags {
			require.NoError(t, cmd.Flags().Set(k, v))
		}
		return cmd
	}
	day := func(s string) time.Time {
		d, err := time.Parse(dateLayout, s)
		require.NoError(t, err)
		return d
	}

	tests := []struct {
		name     string
		flags    map[string]string
		from, to string
		wantErr  string
	}{
		{"single date", map[string]string{"date": "2024-06-27"}, "2024-06-27", "2024-06-27", ""},
		{"from only", map[string]string{"from": "2024-06-01"}, "2024-06-01", "2024-06-01", ""},
		{"range", map[string]string{"from": "2024-06-01", "to": "2024-06-03"}, "2024-06-01", "2024-06-03", ""},
		{"nothing", nil, "", "", "provide --date or --from"},
		{"date and from", map[string]string{"date": "2024-06-01", "from": "2024-06-01"}, "", "", "cannot be combined"},
		{"bad date", map[string]string{"from": "2024-02-30"}, "", "", "invalid --from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := dateRange(newCmd(tt.flags))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, day(tt.from), from)
			assert.Equal(t, day(tt.to), to)
		})
	}
}
