package vitaldb

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is a parsed CSV payload: the first line is the header, the rest are
// data rows. Rows may be shorter or longer than the header.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// ParseCSV parses text into a Table. Empty input yields an empty table.
func ParseCSV(text string) (*Table, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	r.FieldsPerRecord = -1

	t := &Table{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if t.Header == nil {
			t.Header = make([]string, len(rec))
			for i, h := range rec {
				t.Header[i] = strings.TrimSpace(h)
			}
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	t.buildIndex()
	return t, nil
}

// NewTable builds a Table from an explicit header and rows.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows}
	t.buildIndex()
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
}

// Col returns the position of the named column, or -1.
func (t *Table) Col(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the header contains name.
func (t *Table) Has(name string) bool { return t.Col(name) >= 0 }

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Cell returns the raw value at row r, column c, and whether it exists.
func (t *Table) Cell(r, c int) (string, bool) {
	if c < 0 || r < 0 || r >= len(t.Rows) || c >= len(t.Rows[r]) {
		return "", false
	}
	return t.Rows[r][c], true
}

// FetchTable fetches resource from src and parses it as CSV.
func FetchTable(ctx context.Context, src Source, resource string) (*Table, error) {
	text, err := src.Fetch(ctx, resource)
	if err != nil {
		return nil, err
	}
	return ParseCSV(text)
}
