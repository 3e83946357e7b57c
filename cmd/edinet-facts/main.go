// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the edinet-facts CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/edinet-facts/internal/logger"
	"github.com/pdiddy/edinet-facts/internal/secrets"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state populated by PersistentPreRunE.
var (
	loadedSecrets map[string]string
	appCfg        types.Config
	appLog        = logger.Nop()
)

// rootCmd is the base command for the edinet-facts CLI.
var rootCmd = &cobra.Command{
	Use:   "edinet-facts",
	Short: "Extract and audit financial facts from EDINET annual reports",
	Long: `edinet-facts downloads annual securities reports from EDINET, unpacks the
CSV rendition, maps taxonomy tags onto canonical financial concepts and
writes one JSON record per company. Each record is audited for missing
facts under its accounting standard (IFRS or Japanese GAAP) and can be
rendered as a balance sheet and income statement chart.

Each stage is a subcommand: fetch, unpack, extract, chart, index and serve.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.LoadEnv(); err != nil {
			return err
		}
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if mode, _ := cmd.Flags().GetString("log-mode"); mode != "" {
			cfg.Log.Mode = mode
		}
		appCfg = cfg

		log, err := logger.New(cfg.Log.Mode)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		appLog = log
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		appLog.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./edinet-facts.yaml or ~/.config/edinet-facts/edinet-facts.yaml)")
	rootCmd.PersistentFlags().String("log-mode", "", "log mode: development, production or nop")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("edinet-facts")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "edinet-facts"))
		}
	}

	viper.SetEnvPrefix("EDINET_FACTS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := registerDefaults(viper.GetViper(), types.DefaultConfig()); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
