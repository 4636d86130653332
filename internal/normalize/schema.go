// Package normalize coerces raw CSV batches into typed, bounded rows
// according to an explicit per-column schema.
package normalize

import (
	"fmt"
	"math"
	"strings"
)

// Kind selects the coercion rule applied to a column.
type Kind int

const (
	// KindTimestamp is a 64-bit integer that falls back to 0.
	KindTimestamp Kind = iota
	// KindInteger is a 32-bit integer that falls back to -1.
	KindInteger
	// KindNumeric is a fixed-precision decimal: rounded, clamped, falls back to -1.
	KindNumeric
	// KindVarchar is a trimmed string truncated to a maximum length.
	KindVarchar
	// KindText is a trimmed string of any length.
	KindText
	// KindFloat is an unbounded float that falls back to NaN.
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindTimestamp:
		return "timestamp"
	case KindInteger:
		return "integer"
	case KindNumeric:
		return "numeric"
	case KindVarchar:
		return "varchar"
	case KindText:
		return "text"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column describes how one column is coerced.
type Column struct {
	Name      string
	Kind      Kind
	Precision int // total digits, KindNumeric only
	Scale     int // decimal digits, KindNumeric only
	MaxLen    int // KindVarchar only
}

func Timestamp(name string) Column { return Column{Name: name, Kind: KindTimestamp} }
func Integer(name string) Column   { return Column{Name: name, Kind: KindInteger} }
func Text(name string) Column      { return Column{Name: name, Kind: KindText} }
func Float(name string) Column     { return Column{Name: name, Kind: KindFloat} }

func Numeric(name string, precision, scale int) Column {
	return Column{Name: name, Kind: KindNumeric, Precision: precision, Scale: scale}
}

func Varchar(name string, maxLen int) Column {
	return Column{Name: name, Kind: KindVarchar, MaxLen: maxLen}
}

// Bounds returns the closed interval a KindNumeric column is clamped into.
func (c Column) Bounds() (lo, hi float64) {
	hi = math.Pow(10, float64(c.Precision-c.Scale)) - math.Pow(10, -float64(c.Scale))
	if c.Precision > 1 {
		lo = -hi
	}
	return lo, hi
}

// Schema is a resolved set of column rules plus the columns a batch must
// carry.
type Schema struct {
	Name     string
	Columns  []Column
	Required []string

	index map[string]int
}

// NewSchema validates and indexes the column rules.
func NewSchema(name string, required []string, cols ...Column) *Schema {
	s := &Schema{Name: name, Columns: cols, Required: required, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := s.index[c.Name]; dup {
			panic(fmt.Sprintf("normalize: duplicate column %q in schema %s", c.Name, name))
		}
		if c.Kind == KindNumeric && (c.Precision <= 0 || c.Scale < 0 || c.Scale > c.Precision) {
			panic(fmt.Sprintf("normalize: bad precision for %s.%s", name, c.Name))
		}
		s.index[c.Name] = i
	}
	for _, r := range required {
		if _, ok := s.index[r]; !ok {
			panic(fmt.Sprintf("normalize: required column %q not declared in schema %s", r, name))
		}
	}
	return s
}

// Column returns the rule for name.
func (s *Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.Columns[i], true
}

// Names returns the column names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// SchemaValidationError reports required columns missing from a batch.
type SchemaValidationError struct {
	Schema  string
	Missing []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s batch is missing required columns: %s", e.Schema, strings.Join(e.Missing, ", "))
}
