// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Column headers of an EDINET CSV export (XBRL_TO_CSV).
const (
	ColumnElementID = "要素ID"
	ColumnContextID = "コンテキストID"
	ColumnValue     = "値"
	ColumnUnit      = "単位"
)

// NotApplicableUnit is the unit marker for facts without a unit.
const NotApplicableUnit = "－"

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Row is one line of a filing export, reduced to the fields the engine matches on.
type Row struct {
	ElementID string
	ContextID string
	Value     string
	Unit      string
}

// ReadRows decodes a UTF-16LE, tab-delimited export. A byte order mark is
// honored when present. Columns are located by header name, so their
// order and any extra columns do not matter. An empty input yields no
// rows and no error.
func ReadRows(r io.Reader) ([]Row, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, Row{
			ElementID: field(rec, cols.element),
			ContextID: field(rec, cols.context),
			Value:     field(rec, cols.value),
			Unit:      field(rec, cols.unit),
		})
	}
	return rows, nil
}

// ReadFile opens path and decodes it with ReadRows.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

type columns struct {
	element, context, value, unit int
}

func locateColumns(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	find := func(name string) (int, error) {
		i, ok := idx[name]
		if !ok {
			return 0, fmt.Errorf("%w %q in header %q", ErrMissingColumn, name, header)
		}
		return i, nil
	}

	var c columns
	var err error
	if c.element, err = find(ColumnElementID); err != nil {
		return c, err
	}
	if c.context, err = find(ColumnContextID); err != nil {
		return c, err
	}
	if c.value, err = find(ColumnValue); err != nil {
		return c, err
	}
	if c.unit, err = find(ColumnUnit); err != nil {
		return c, err
	}
	return c, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}
