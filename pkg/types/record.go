// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// UnsetSentinel is the serialized form of a fact that no row in the filing matched.
const UnsetSentinel = -1

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindUnset ValueKind = iota
	KindInteger
	KindText
)

func (k ValueKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindText:
		return "text"
	default:
		return "unset"
	}
}

// Value is the realized value of one fact: unset, an integer amount, or
// free text such as a company name or a date. Only integers support
// arithmetic; callers must check the kind before using Int.
type Value struct {
	kind ValueKind
	num  int64
	text string
}

// UnsetValue returns the value of a fact that was never observed.
func UnsetValue() Value { return Value{} }

// IntegerValue wraps a numeric fact.
func IntegerValue(n int64) Value { return Value{kind: KindInteger, num: n} }

// TextValue wraps a non-numeric fact.
func TextValue(s string) Value { return Value{kind: KindText, text: s} }

// Kind reports which variant v holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsSet reports whether v holds an observed value.
func (v Value) IsSet() bool { return v.kind != KindUnset }

// Int returns the integer and true when v is an integer.
func (v Value) Int() (int64, bool) {
	return v.num, v.kind == KindInteger
}

// Text returns the text and true when v is text.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

// String renders v for display. Unset renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// Equal reports whether v and o hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.num == o.num && v.text == o.text
}

// MarshalJSON writes unset as -1, integers as JSON numbers and text as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInteger:
		return []byte(strconv.FormatInt(v.num, 10)), nil
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte(strconv.Itoa(UnsetSentinel)), nil
	}
}

// MarshalYAML mirrors MarshalJSON so YAML dumps show the same sentinel.
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case KindInteger:
		return v.num, nil
	case KindText:
		return v.text, nil
	default:
		return UnsetSentinel, nil
	}
}

// UnmarshalJSON accepts a number, a string or null. The number -1 and null
// decode as unset.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = UnsetValue()
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding text value: %w", err)
		}
		*v = TextValue(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		// Non-integral numbers are kept verbatim as text.
		var f json.Number
		if jerr := json.Unmarshal(data, &f); jerr != nil {
			return fmt.Errorf("decoding value %s: %w", data, err)
		}
		*v = TextValue(f.String())
		return nil
	}
	if n == UnsetSentinel {
		*v = UnsetValue()
		return nil
	}
	*v = IntegerValue(n)
	return nil
}

// FactValue is one concept's entry in a company record and in the JSON output.
type FactValue struct {
	// Name is the display label of the concept (e.g. "売上高").
	Name string `json:"name" yaml:"name"`

	// Value is the realized value or unset.
	Value Value `json:"value" yaml:"value"`

	// Unit is the source unit, empty when the filing marks it not applicable.
	Unit string `json:"unit" yaml:"unit"`

	// IFRSFlag is 1 for IFRS concepts and 0 otherwise.
	IFRSFlag int `json:"ifrs_flag" yaml:"ifrs_flag"`
}

// IsIFRS reports whether the fact belongs to the IFRS concept set.
func (f FactValue) IsIFRS() bool { return f.IFRSFlag == int(StandardIFRS) }

// Concept names with a document-level meaning.
const (
	ConceptCompanyName = "CompanyName"
	ConceptEndDate     = "EndDate"
)

// Overwrite records a second matching row that replaced an already set fact.
type Overwrite struct {
	Concept  string `json:"concept" yaml:"concept"`
	Element  string `json:"element" yaml:"element"`
	Context  string `json:"context" yaml:"context"`
	Previous string `json:"previous" yaml:"previous"`
	Current  string `json:"current" yaml:"current"`
}

// CompanyRecord is the canonical record for one filing.
type CompanyRecord struct {
	// Facts maps every registered concept to its value; unmatched concepts are unset.
	Facts map[string]FactValue `json:"facts" yaml:"facts"`

	// CompanyName is derived from the CompanyName fact.
	CompanyName string `json:"company_name" yaml:"company_name"`

	// PeriodEnd is derived from the EndDate fact (YYYY-MM-DD as filed).
	PeriodEnd string `json:"period_end" yaml:"period_end"`

	// SecurityCode is parsed from the source file name, not the filing body.
	SecurityCode string `json:"security_code,omitempty" yaml:"security_code,omitempty"`

	// SourcePath is the filing export the record was built from.
	SourcePath string `json:"source_path,omitempty" yaml:"source_path,omitempty"`

	// Overwrites lists duplicate matches that changed an already set fact.
	Overwrites []Overwrite `json:"overwrites,omitempty" yaml:"overwrites,omitempty"`
}

// Fact returns the fact for concept. A concept missing from the map reads as unset.
func (r *CompanyRecord) Fact(concept string) FactValue {
	if r == nil || r.Facts == nil {
		return FactValue{Value: UnsetValue()}
	}
	return r.Facts[concept]
}

// Derive fills CompanyName and PeriodEnd from the cover facts.
func (r *CompanyRecord) Derive() {
	r.CompanyName = r.Fact(ConceptCompanyName).Value.String()
	r.PeriodEnd = r.Fact(ConceptEndDate).Value.String()
}
