// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/edinet-facts/internal/acquire"
	"github.com/pdiddy/edinet-facts/internal/edinet"
	"github.com/pdiddy/edinet-facts/internal/unpack"
)

const dateLayout = "2006-01-02"

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download annual report CSV archives from EDINET",
	Long: `Fetch lists the documents submitted on each day of a date range, keeps
annual securities reports that have a CSV rendition and downloads them as
<security-code>_<docID>.zip. Existing archives are skipped.

With --unpack the downloaded archives are unpacked into the CSV directory
afterwards.`,
	Example: `  edinet-facts fetch --from 2024-06-20 --to 2024-06-28
  edinet-facts fetch --date 2024-06-27 --unpack`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("from", "", "first submission date (YYYY-MM-DD)")
	fetchCmd.Flags().String("to", "", "last submission date (YYYY-MM-DD, default: --from)")
	fetchCmd.Flags().String("date", "", "single submission date; shorthand for --from D --to D")
	fetchCmd.Flags().String("zip-dir", "", "directory for downloaded archives")
	fetchCmd.Flags().String("api-key", "", "EDINET subscription key")
	fetchCmd.Flags().Duration("interval", 0, "minimum spacing between API requests")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout")
	fetchCmd.Flags().Int("max-retries", 0, "retries on rate limiting and gateway errors")
	fetchCmd.Flags().Bool("unpack", false, "unpack downloaded archives when done")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	from, to, err := dateRange(cmd)
	if err != nil {
		return err
	}

	cfg := appCfg
	stringFlag(cmd, "zip-dir", &cfg.Acquisition.ZipDir)
	stringFlag(cmd, "api-key", &cfg.Edinet.APIKey)
	durationFlag(cmd, "interval", &cfg.Edinet.RequestInterval)
	durationFlag(cmd, "timeout", &cfg.Edinet.Timeout)
	intFlag(cmd, "max-retries", &cfg.Edinet.MaxRetries)

	cfg.Edinet.APIKey = edinetAPIKey(cfg)
	if cfg.Edinet.APIKey == "" {
		return errNoAPIKey
	}

	ctx, cancel := signalContext()
	defer cancel()

	client := edinet.NewClient(cfg.Edinet, &http.Client{Timeout: cfg.Edinet.Timeout})
	fetcher := acquire.New(client, cfg.Acquisition, appLog)
	result, err := fetcher.FetchRange(ctx, from, to, os.Stdout)
	if err != nil {
		return err
	}

	if doUnpack, _ := cmd.Flags().GetBool("unpack"); doUnpack && len(result.Paths) > 0 {
		ucfg := cfg.Unpack
		ucfg.ZipDir = cfg.Acquisition.ZipDir
		fmt.Println()
		ur := unpack.New(ucfg, appLog).Paths(result.Paths, os.Stdout)
		if ur.HasFailures() {
			return fmt.Errorf("%d archive(s) failed to unpack", ur.Failed)
		}
	}

	if result.HasFailures() {
		return fmt.Errorf("%d document(s) and %d date(s) failed", result.Failed, result.FailedDates)
	}
	return nil
}

func dateRange(cmd *cobra.Command) (time.Time, time.Time, error) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	if day, _ := cmd.Flags().GetString("date"); day != "" {
		if fromStr != "" || toStr != "" {
			return time.Time{}, time.Time{}, fmt.Errorf("--date cannot be combined with --from or --to")
		}
		fromStr, toStr = day, day
	}
	if fromStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("provide --date or --from (YYYY-MM-DD)")
	}
	if toStr == "" {
		toStr = fromStr
	}
	from, err := time.Parse(dateLayout, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q: %w", fromStr, err)
	}
	to, err := time.Parse(dateLayout, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q: %w", toStr, err)
	}
	return from, to, nil
}
