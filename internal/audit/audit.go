// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audit decides the accounting standard of a CompanyRecord and
// reports which of that standard's concepts the filing did not provide.
package audit

import (
	"github.com/pdiddy/edinet-facts/internal/registry"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

// IsIFRS reports whether any IFRS-flagged fact in rec is set. A record with
// no set facts of either standard is GAAP.
func IsIFRS(rec *types.CompanyRecord) bool {
	if rec == nil {
		return false
	}
	for _, f := range rec.Facts {
		if f.IsIFRS() && f.Value.IsSet() {
			return true
		}
	}
	return false
}

// Auditor classifies missing facts using the indicator column of a registry.
type Auditor struct {
	reg *registry.Registry
}

// NewAuditor returns an Auditor over reg.
func NewAuditor(reg *registry.Registry) *Auditor {
	return &Auditor{reg: reg}
}

// Audit builds the classification report for rec. Only concepts of the
// detected standard, plus the cover concepts, can be reported missing.
func (a *Auditor) Audit(rec *types.CompanyRecord) types.ClassificationReport {
	report := types.ClassificationReport{
		IsIFRS:  IsIFRS(rec),
		Missing: make(map[string]bool),
	}
	for _, d := range a.reg.Definitions() {
		report.Missing[d.Concept] = false
	}

	for _, d := range a.reg.ForStandard(report.Standard()) {
		if rec.Fact(d.Concept).Value.IsSet() {
			continue
		}
		report.Missing[d.Concept] = true

		ind := d.Indicator
		if ind == types.IndicatorCover {
			ind = types.IndicatorSupplementary
		}
		report.Entries = append(report.Entries, types.MissingEntry{
			Concept:   d.Concept,
			Label:     d.Label,
			Indicator: ind,
		})
		switch ind {
		case types.IndicatorMaterial:
			report.MissingMaterial = true
		default:
			report.MissingSupplementary = true
		}
	}
	return report
}
