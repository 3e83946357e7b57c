// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one or more filing exports through extraction,
// auditing, persistence, indexing and chart rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/pdiddy/edinet-facts/internal/audit"
	"github.com/pdiddy/edinet-facts/internal/chart"
	"github.com/pdiddy/edinet-facts/internal/extract"
	"github.com/pdiddy/edinet-facts/internal/index"
	"github.com/pdiddy/edinet-facts/internal/logger"
	"github.com/pdiddy/edinet-facts/internal/record"
	"github.com/pdiddy/edinet-facts/internal/registry"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

// FilingResult is the outcome of processing one export.
type FilingResult struct {
	Source    string
	Record    *types.CompanyRecord
	Report    types.ClassificationReport
	JSONPath  string
	ChartPath string
	// ChartErr is set when the record was saved but its chart was not.
	ChartErr error
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Processed int
	Failed    int
	Results   []FilingResult
}

// Total returns the number of exports attempted.
func (r BatchResult) Total() int {
	return r.Processed + r.Failed
}

// HasFailures reports whether any export failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// MissingMaterial returns the results whose report lacks a material fact.
func (r BatchResult) MissingMaterial() []FilingResult {
	var out []FilingResult
	for _, fr := range r.Results {
		if fr.Report.MissingMaterial {
			out = append(out, fr)
		}
	}
	return out
}

// Processor wires the stages together. A nil chart renderer disables
// chart output.
type Processor struct {
	extractor *extract.Extractor
	auditor   *audit.Auditor
	store     index.Store
	charts    *chart.Renderer
	jsonDir   string
	chartDir  string
	log       *logger.Logger
}

// New returns a Processor writing records under cfg.Extraction.JSONDir and
// charts under cfg.Chart.Dir.
func New(reg *registry.Registry, store index.Store, charts *chart.Renderer, cfg types.Config, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "pipeline")
	return &Processor{
		extractor: extract.New(reg, log),
		auditor:   audit.NewAuditor(reg),
		store:     store,
		charts:    charts,
		jsonDir:   cfg.Extraction.JSONDir,
		chartDir:  cfg.Chart.Dir,
		log:       log,
	}
}

// ProcessFiling extracts, audits and persists one export. The index entry
// is upserted but not saved; callers decide when to Save. A chart failure
// does not fail the filing and is reported in ChartErr.
func (p *Processor) ProcessFiling(ctx context.Context, path string) (FilingResult, error) {
	res := FilingResult{Source: path}

	rec, err := p.extractor.ExtractFile(path)
	if err != nil {
		return res, err
	}
	res.Record = rec
	res.Report = p.auditor.Audit(rec)

	jsonPath, err := record.Write(p.jsonDir, rec)
	if err != nil {
		return res, fmt.Errorf("writing record: %w", err)
	}
	res.JSONPath = jsonPath

	if rec.SecurityCode != "" {
		if err := p.store.Upsert(ctx, rec.SecurityCode, jsonPath); err != nil {
			return res, fmt.Errorf("updating index: %w", err)
		}
	} else {
		p.log.Warn("no security code in file name, index not updated", "path", path)
	}

	if p.charts != nil {
		chartPath, err := p.charts.RenderFile(rec, res.Report.IsIFRS, p.chartDir, filepath.Base(jsonPath))
		if err != nil {
			res.ChartErr = fmt.Errorf("rendering chart: %w", err)
			p.log.Warn("chart not rendered", "record", jsonPath, "error", err)
		} else {
			res.ChartPath = chartPath
		}
	}

	p.log.Info("filing processed",
		"source", filepath.Base(path),
		"record", jsonPath,
		"standard", res.Report.Standard().String(),
		"missing", len(res.Report.Entries),
		"overwrites", len(rec.Overwrites))
	return res, nil
}

// ProcessDir processes every .csv in dir in name order.
func (p *Processor) ProcessDir(ctx context.Context, dir string, w io.Writer) (BatchResult, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return BatchResult{}, fmt.Errorf("listing exports: %w", err)
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		fmt.Fprintf(w, "no CSV files found in %s\n", dir)
	}
	return p.ProcessPaths(ctx, matches, w)
}

// ProcessPaths processes the given exports. A failing export is reported
// and the batch continues. The index is saved once at the end, also when
// ctx is cancelled part way; a failed save is returned with the partial
// result.
func (p *Processor) ProcessPaths(ctx context.Context, paths []string, w io.Writer) (BatchResult, error) {
	var result BatchResult
	var runErr error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		name := filepath.Base(path)
		fr, err := p.ProcessFiling(ctx, path)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
			p.log.Error("filing failed", "path", path, "error", err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "saved:   %s -> %s\n", name, fr.JSONPath)
		for _, e := range fr.Report.Entries {
			fmt.Fprintf(w, "         %s indicator %s (%s) not found\n", e.Indicator, e.Label, e.Concept)
		}
		if fr.ChartErr != nil {
			fmt.Fprintf(w, "         chart not rendered (%v)\n", fr.ChartErr)
		}
		result.Processed++
		result.Results = append(result.Results, fr)
	}

	// Records already written stay reachable after a cancellation.
	saveErr := p.store.Save(context.WithoutCancel(ctx))
	if saveErr != nil {
		p.log.Error("index save failed", "error", saveErr)
	}

	fmt.Fprintf(w, "\nBatch summary: %d processed, %d failed (total: %d)\n",
		result.Processed, result.Failed, result.Total())
	if missing := result.MissingMaterial(); len(missing) > 0 {
		fmt.Fprintf(w, "Companies missing material indicators: %d\n", len(missing))
		for _, fr := range missing {
			fmt.Fprintf(w, "  %s\n", Describe(fr.Record))
		}
	}
	if saveErr != nil {
		return result, errors.Join(runErr, fmt.Errorf("saving index: %w", saveErr))
	}
	return result, runErr
}

// Describe names a record for summaries: company, period end and code.
func Describe(rec *types.CompanyRecord) string {
	if rec == nil {
		return "(unknown)"
	}
	name := rec.CompanyName
	if name == "" {
		name = filepath.Base(rec.SourcePath)
	}
	s := name
	if rec.PeriodEnd != "" {
		s += " " + rec.PeriodEnd
	}
	if rec.SecurityCode != "" {
		s += " [" + rec.SecurityCode + "]"
	}
	return s
}
