// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Standard identifies the accounting standard a concept is reported under.
// The numeric values match the ifrs_flag field of the JSON output.
type Standard int

const (
	StandardGAAP Standard = 0
	StandardIFRS Standard = 1
)

func (s Standard) String() string {
	if s == StandardIFRS {
		return "IFRS"
	}
	return "GAAP"
}

// Indicator classifies how prominently a missing concept is reported.
type Indicator string

const (
	// IndicatorMaterial marks core statement aggregates.
	IndicatorMaterial Indicator = "material"
	// IndicatorSupplementary marks secondary aggregates.
	IndicatorSupplementary Indicator = "supplementary"
	// IndicatorCover marks document-level concepts that belong to neither
	// standard's statements (company name, period end).
	IndicatorCover Indicator = "cover"
)

// ParseIndicator validates an indicator name from configuration.
func ParseIndicator(s string) (Indicator, error) {
	switch Indicator(strings.ToLower(strings.TrimSpace(s))) {
	case IndicatorMaterial:
		return IndicatorMaterial, nil
	case IndicatorSupplementary:
		return IndicatorSupplementary, nil
	case IndicatorCover:
		return IndicatorCover, nil
	}
	return "", fmt.Errorf("unknown indicator %q (want material, supplementary or cover)", s)
}

// TagPair is an (element id, context id) combination that identifies a
// concept in a filing export.
type TagPair struct {
	Element string `json:"element" yaml:"element"`
	Context string `json:"context" yaml:"context"`
}

func (p TagPair) String() string {
	return p.Element + "@" + p.Context
}
