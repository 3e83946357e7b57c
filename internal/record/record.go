// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package record reads and writes the per-company JSON output. New files
// use the object form {name, value, unit, ifrs_flag} per concept; the
// older [name, value, unit] array form is accepted on read.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/edinet-facts/pkg/types"
)

const ext = ".json"

// ErrNotFound is returned when a named record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInvalidName is returned for names that would escape the record directory.
var ErrInvalidName = errors.New("invalid record name")

var nameReplacer = strings.NewReplacer("/", "／", "\\", "＼", "\x00", "")

// FileName returns <company-name><period-end-date>.json for rec. Path
// separators in the company name are replaced with full-width forms. When
// both fields are empty the source file stem is used instead.
func FileName(rec *types.CompanyRecord) string {
	base := nameReplacer.Replace(rec.CompanyName) + nameReplacer.Replace(rec.PeriodEnd)
	if strings.TrimSpace(base) == "" {
		stem := strings.TrimSuffix(filepath.Base(rec.SourcePath), filepath.Ext(rec.SourcePath))
		if stem == "" || stem == "." {
			stem = "unnamed"
		}
		base = stem
	}
	return base + ext
}

// Marshal encodes the facts of rec as indented UTF-8 JSON.
func Marshal(rec *types.CompanyRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec.Facts); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return buf.Bytes(), nil
}

// Write stores rec under dir and returns the written path. The file is
// written to a temporary name and renamed into place.
func Write(dir string, rec *types.CompanyRecord) (string, error) {
	data, err := Marshal(rec)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName(rec))
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Decode parses a JSON record in either form.
func Decode(data []byte) (map[string]types.FactValue, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	facts := make(map[string]types.FactValue, len(raw))
	for concept, msg := range raw {
		msg = bytes.TrimSpace(msg)
		var f types.FactValue
		var err error
		if len(msg) > 0 && msg[0] == '[' {
			f, err = decodeLegacy(concept, msg)
		} else {
			err = json.Unmarshal(msg, &f)
		}
		if err != nil {
			return nil, fmt.Errorf("concept %s: %w", concept, err)
		}
		facts[concept] = f
	}
	return facts, nil
}

// decodeLegacy reads [name, value, unit]. The array form carries no
// standard flag; it is inferred from the IFRS concept prefix.
func decodeLegacy(concept string, msg json.RawMessage) (types.FactValue, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(msg, &parts); err != nil {
		return types.FactValue{}, err
	}
	if len(parts) != 3 {
		return types.FactValue{}, fmt.Errorf("legacy entry has %d elements, want 3", len(parts))
	}
	var f types.FactValue
	if err := json.Unmarshal(parts[0], &f.Name); err != nil {
		return f, fmt.Errorf("name: %w", err)
	}
	if err := json.Unmarshal(parts[1], &f.Value); err != nil {
		return f, fmt.Errorf("value: %w", err)
	}
	if err := json.Unmarshal(parts[2], &f.Unit); err != nil {
		return f, fmt.Errorf("unit: %w", err)
	}
	if strings.HasPrefix(concept, "IFRS") {
		f.IFRSFlag = int(types.StandardIFRS)
	}
	return f, nil
}

// Read loads the record at path and derives its company fields.
func Read(path string) (*types.CompanyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	facts, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rec := &types.CompanyRecord{Facts: facts, SourcePath: path}
	rec.Derive()
	return rec, nil
}

// Resolve joins a bare record name onto dir, rejecting anything that is
// not a plain .json file name.
func Resolve(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Ext(name) != ext {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(dir, name), nil
}

// List returns the record file names in dir whose name contains query,
// compared case-insensitively. An empty query matches every record. A
// missing directory yields an empty list.
func List(dir, query string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, ".") {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".record-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing record: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
