// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads EDINET CSV archives for a range of submission dates.
package acquire

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/edinet-facts/internal/edinet"
	"github.com/pdiddy/edinet-facts/internal/logger"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

// Source lists and downloads EDINET documents. *edinet.Client implements it.
type Source interface {
	Documents(ctx context.Context, date time.Time) ([]types.Document, error)
	Download(ctx context.Context, docID string, kind int, w io.Writer) error
}

// BatchResult holds the outcome of a fetch run.
type BatchResult struct {
	Downloaded  int
	Skipped     int
	Failed      int
	FailedDates int
	Paths       []string
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any document or date listing failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0 || r.FailedDates > 0
}

// Fetcher writes archives into cfg.ZipDir.
type Fetcher struct {
	src Source
	cfg types.AcquisitionConfig
	log *logger.Logger
}

// New returns a Fetcher reading from src.
func New(src Source, cfg types.AcquisitionConfig, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Fetcher{src: src, cfg: cfg, log: log.With("component", "acquire")}
}

// Dates returns every calendar day from from to to inclusive.
func Dates(from, to time.Time) []time.Time {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// FetchDocument downloads doc to <zip-dir>/<secCode>_<docID>.zip through a
// temporary file. An existing archive is skipped.
func (f *Fetcher) FetchDocument(ctx context.Context, doc types.Document, w io.Writer) (path string, skipped bool, err error) {
	path = filepath.Join(f.cfg.ZipDir, doc.ArchiveName())
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", doc.ArchiveName())
		return path, true, nil
	}
	if err := os.MkdirAll(f.cfg.ZipDir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating directory %s: %w", f.cfg.ZipDir, err)
	}

	fmt.Fprintf(w, "downloading: %s\n", doc)
	tmp, err := os.CreateTemp(f.cfg.ZipDir, ".acquire-*.tmp")
	if err != nil {
		return "", false, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	dlErr := f.src.Download(ctx, doc.DocID, edinet.DownloadCSV, tmp)
	closeErr := tmp.Close()
	if dlErr != nil {
		os.Remove(tmpPath)
		return "", false, fmt.Errorf("downloading %s: %w", doc.DocID, dlErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", false, fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", false, fmt.Errorf("renaming temp file: %w", err)
	}
	return path, false, nil
}

// FetchRange lists each date in [from, to], keeps the annual reports with
// a CSV rendition and downloads them. A failed listing or download is
// reported and the run continues; only cancellation stops it early.
func (f *Fetcher) FetchRange(ctx context.Context, from, to time.Time, w io.Writer) (BatchResult, error) {
	if to.Before(from) {
		return BatchResult{}, fmt.Errorf("end date %s is before start date %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	var result BatchResult
	for _, day := range Dates(from, to) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		date := day.Format("2006-01-02")
		fmt.Fprintf(w, "Fetching data for %s\n", date)

		docs, err := f.src.Documents(ctx, day)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			fmt.Fprintf(w, "failed:  %s (%v)\n", date, err)
			f.log.Error("documents list failed", "date", date, "error", err)
			result.FailedDates++
			continue
		}
		reports := edinet.AnnualReports(docs)
		f.log.Debug("documents listed", "date", date, "total", len(docs), "annual_csv", len(reports))

		for _, doc := range reports {
			path, skipped, err := f.FetchDocument(ctx, doc, w)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				fmt.Fprintf(w, "failed:  %s (%v)\n", doc.ArchiveName(), err)
				f.log.Error("download failed", "doc_id", doc.DocID, "error", err)
				result.Failed++
			case skipped:
				result.Skipped++
			default:
				result.Downloaded++
				result.Paths = append(result.Paths, path)
			}
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result, nil
}
