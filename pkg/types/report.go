// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MissingEntry names one concept of the active standard that the filing did not report.
type MissingEntry struct {
	Concept   string    `json:"concept" yaml:"concept"`
	Label     string    `json:"label" yaml:"label"`
	Indicator Indicator `json:"indicator" yaml:"indicator"`
}

// ClassificationReport is the completeness audit of one CompanyRecord.
type ClassificationReport struct {
	// IsIFRS is true when at least one IFRS concept is set.
	IsIFRS bool `json:"is_ifrs" yaml:"is_ifrs"`

	// Missing holds a flag for every registered concept. Concepts of the
	// inactive standard are never flagged.
	Missing map[string]bool `json:"missing" yaml:"missing"`

	// Entries lists the missing concepts in registry order.
	Entries []MissingEntry `json:"entries" yaml:"entries"`

	// MissingMaterial is set when any material concept of the active standard is unset.
	MissingMaterial bool `json:"missing_material" yaml:"missing_material"`

	// MissingSupplementary is set when any supplementary or cover concept is unset.
	MissingSupplementary bool `json:"missing_supplementary" yaml:"missing_supplementary"`
}

// Standard returns the standard the report was computed for.
func (r ClassificationReport) Standard() Standard {
	if r.IsIFRS {
		return StandardIFRS
	}
	return StandardGAAP
}

// MaterialEntries returns only the material misses.
func (r ClassificationReport) MaterialEntries() []MissingEntry {
	var out []MissingEntry
	for _, e := range r.Entries {
		if e.Indicator == IndicatorMaterial {
			out = append(out, e)
		}
	}
	return out
}
