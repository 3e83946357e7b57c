// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns one EDINET CSV export into a CompanyRecord by
// matching each row's (element id, context id) pair against the concept
// registry.
package extract

import (
	"strconv"
	"strings"

	"github.com/pdiddy/edinet-facts/internal/logger"
	"github.com/pdiddy/edinet-facts/internal/registry"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

// Extractor populates records from filing rows.
type Extractor struct {
	reg *registry.Registry
	log *logger.Logger
}

// New returns an Extractor over reg. A nil log discards warnings.
func New(reg *registry.Registry, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{reg: reg, log: log.With("component", "extract")}
}

// Extract scans rows in order and returns a record holding every
// registered concept. Rows whose tag pair is not registered are ignored.
// A second row for an already set concept replaces it; the replacement is
// recorded and logged when the value changes.
func (e *Extractor) Extract(rows []Row) *types.CompanyRecord {
	rec := e.reg.NewRecord()
	for _, row := range rows {
		concept, ok := e.reg.Lookup(row.ElementID, row.ContextID)
		if !ok {
			continue
		}
		fact := rec.Facts[concept]
		next := ParseValue(row.Value)
		unit := NormalizeUnit(row.Unit)

		if fact.Value.IsSet() && (!fact.Value.Equal(next) || fact.Unit != unit) {
			rec.Overwrites = append(rec.Overwrites, types.Overwrite{
				Concept:  concept,
				Element:  row.ElementID,
				Context:  row.ContextID,
				Previous: fact.Value.String(),
				Current:  next.String(),
			})
			e.log.Warn("duplicate match overwrites fact",
				"concept", concept,
				"element", row.ElementID,
				"previous", fact.Value.String(),
				"current", next.String(),
			)
		}
		fact.Value = next
		fact.Unit = unit
		rec.Facts[concept] = fact
	}
	rec.Derive()
	return rec
}

// ExtractFile reads and extracts the export at path. The security code is
// taken from the file name. Any read or decode error discards the record.
func (e *Extractor) ExtractFile(path string) (*types.CompanyRecord, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	rec := e.Extract(rows)
	rec.SourcePath = path
	rec.SecurityCode = types.SecurityCodeFromName(path)
	e.log.Debug("extracted filing",
		"path", path,
		"rows", len(rows),
		"company", rec.CompanyName,
		"security_code", rec.SecurityCode,
	)
	return rec, nil
}

// ParseValue converts a cell to an integer when it is a base-10 integer
// after trimming spaces; otherwise the original text is kept unchanged.
func ParseValue(raw string) types.Value {
	if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
		return types.IntegerValue(n)
	}
	return types.TextValue(raw)
}

// NormalizeUnit maps the not-applicable marker to "".
func NormalizeUnit(unit string) string {
	if unit == NotApplicableUnit {
		return ""
	}
	return unit
}
