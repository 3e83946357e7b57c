// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/edinet-facts/internal/secrets"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

const defaultConfigFile = "edinet-facts.yaml"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Show prints the configuration after merging defaults, the config file and
EDINET_FACTS_* environment variables. The API key is masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appCfg
		if key := edinetAPIKey(cfg); key != "" {
			cfg.Edinet.APIKey = mask(key)
		}
		return writeYAML(os.Stdout, cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().String("path", defaultConfigFile, "file to write")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writeYAML(f, types.DefaultConfig()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}

// registerDefaults makes every config key known to v so that environment
// variables resolve for keys absent from the config file.
func registerDefaults(v *viper.Viper, cfg types.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decoding defaults: %w", err)
	}
	for key, val := range flatten("", tree) {
		v.SetDefault(key, val)
	}
	for _, key := range optionalKeys {
		v.SetDefault(key, "")
	}
	return nil
}

// optionalKeys are omitted from the encoded defaults when empty.
var optionalKeys = []string{"edinet.api_key", "extraction.registry_file", "chart.font_file"}

func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = val
	}
	return out
}

// loadConfig decodes the merged viper state over the defaults.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	switch cfg.Index.Backend {
	case types.IndexJSON, types.IndexSQLite, types.IndexMemory:
	default:
		return cfg, fmt.Errorf("index.backend: unknown backend %q", cfg.Index.Backend)
	}
	return cfg, nil
}

// edinetAPIKey resolves the subscription key from config, .secrets/ and
// the environment.
func edinetAPIKey(cfg types.Config) string {
	return secrets.Resolve(cfg.Edinet.APIKey, loadedSecrets, secrets.EdinetAPIKey, secrets.EdinetEnvVars...)
}

var errNoAPIKey = errors.New("no EDINET API key: set edinet.api_key, EDINET_API_KEY or .secrets/" + secrets.EdinetAPIKey)

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}

// Flag overrides apply only when the user set the flag explicitly.

func stringFlag(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

func boolFlag(cmd *cobra.Command, name string, dst *bool) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetBool(name)
	}
}

func intFlag(cmd *cobra.Command, name string, dst *int) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

func durationFlag(cmd *cobra.Command, name string, dst *time.Duration) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetDuration(name)
	}
}
