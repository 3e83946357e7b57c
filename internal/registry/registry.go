// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry holds the table of canonical financial concepts and the
// taxonomy tag pairs that identify each concept in an EDINET CSV export.
// The table is data: the built-in copy is embedded from concepts.yaml and a
// replacement can be loaded from disk without touching the extraction scan.
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/edinet-facts/pkg/types"
)

//go:embed concepts.yaml
var builtinTable []byte

// Definition describes one canonical concept.
type Definition struct {
	Concept   string          `json:"concept" yaml:"concept"`
	Label     string          `json:"label" yaml:"label"`
	Standard  types.Standard  `json:"ifrs_flag" yaml:"ifrs_flag"`
	Indicator types.Indicator `json:"indicator" yaml:"indicator"`
	Tags      []types.TagPair `json:"tags" yaml:"tags"`
}

// Conflict records a tag pair claimed by more than one concept. Lookup
// resolves it to Winner, the earlier definition in table order.
type Conflict struct {
	Tag    types.TagPair
	Winner string
	Loser  string
}

// Registry is an immutable concept table with a tag-pair lookup map.
type Registry struct {
	defs      []Definition
	byTag     map[types.TagPair]string
	byConcept map[string]int
	conflicts []Conflict
}

// New validates defs and builds the lookup map. Concept names must be
// unique and non-empty; tag pairs shared between concepts are not an
// error but are reported by Conflicts.
func New(defs []Definition) (*Registry, error) {
	r := &Registry{
		defs:      make([]Definition, 0, len(defs)),
		byTag:     make(map[types.TagPair]string),
		byConcept: make(map[string]int, len(defs)),
	}
	for i, d := range defs {
		d.Concept = strings.TrimSpace(d.Concept)
		if d.Concept == "" {
			return nil, fmt.Errorf("definition %d: empty concept name", i)
		}
		if _, dup := r.byConcept[d.Concept]; dup {
			return nil, fmt.Errorf("definition %d: duplicate concept %q", i, d.Concept)
		}
		if d.Standard != types.StandardGAAP && d.Standard != types.StandardIFRS {
			return nil, fmt.Errorf("concept %s: ifrs_flag must be 0 or 1, got %d", d.Concept, d.Standard)
		}
		ind, err := types.ParseIndicator(string(d.Indicator))
		if err != nil {
			return nil, fmt.Errorf("concept %s: %w", d.Concept, err)
		}
		d.Indicator = ind
		if len(d.Tags) == 0 {
			return nil, fmt.Errorf("concept %s: no tag pairs", d.Concept)
		}

		for _, tag := range d.Tags {
			if tag.Element == "" || tag.Context == "" {
				return nil, fmt.Errorf("concept %s: incomplete tag pair %q", d.Concept, tag.String())
			}
			if owner, taken := r.byTag[tag]; taken {
				r.conflicts = append(r.conflicts, Conflict{Tag: tag, Winner: owner, Loser: d.Concept})
				continue
			}
			r.byTag[tag] = d.Concept
		}
		r.byConcept[d.Concept] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

// Parse decodes a YAML concept table.
func Parse(data []byte) (*Registry, error) {
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing concept table: %w", err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("concept table is empty")
	}
	return New(defs)
}

// Load reads a YAML concept table from path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading concept table %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Default returns the built-in concept table. It panics if the embedded
// table is invalid, which the package tests rule out.
func Default() *Registry {
	r, err := Parse(builtinTable)
	if err != nil {
		panic(fmt.Sprintf("registry: built-in table: %v", err))
	}
	return r
}

// Open returns the table at path, or the built-in table when path is empty.
func Open(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Lookup resolves a tag pair to its concept.
func (r *Registry) Lookup(element, context string) (string, bool) {
	c, ok := r.byTag[types.TagPair{Element: element, Context: context}]
	return c, ok
}

// Definition returns the definition of concept.
func (r *Registry) Definition(concept string) (Definition, bool) {
	i, ok := r.byConcept[concept]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Definitions returns all definitions in table order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// ForStandard returns the statement concepts of std plus the cover
// concepts, in table order.
func (r *Registry) ForStandard(std types.Standard) []Definition {
	var out []Definition
	for _, d := range r.defs {
		if d.Indicator == types.IndicatorCover || d.Standard == std {
			out = append(out, d)
		}
	}
	return out
}

// Conflicts lists tag pairs shared between concepts.
func (r *Registry) Conflicts() []Conflict {
	out := make([]Conflict, len(r.conflicts))
	copy(out, r.conflicts)
	return out
}

// NewRecord returns a CompanyRecord with every concept unset.
func (r *Registry) NewRecord() *types.CompanyRecord {
	facts := make(map[string]types.FactValue, len(r.defs))
	for _, d := range r.defs {
		facts[d.Concept] = types.FactValue{
			Name:     d.Label,
			Value:    types.UnsetValue(),
			IFRSFlag: int(d.Standard),
		}
	}
	return &types.CompanyRecord{Facts: facts}
}
