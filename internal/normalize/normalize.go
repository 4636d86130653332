package normalize

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vitallab/vitallab/internal/platform/vitaldb"
)

const (
	timestampFallback int64 = 0
	integerFallback   int64 = -1
	numericFallback         = -1.0
)

// Record is one normalized row. Values are stored per schema column as
// int64, float64 or string depending on the column kind.
type Record struct {
	schema *Schema
	values []any
}

// Int returns an integer column value.
func (r Record) Int(name string) int64 {
	v, _ := r.get(name).(int64)
	return v
}

// Float returns a numeric or float column value.
func (r Record) Float(name string) float64 {
	v, _ := r.get(name).(float64)
	return v
}

// Str returns a string column value.
func (r Record) Str(name string) string {
	v, _ := r.get(name).(string)
	return v
}

// Value returns the raw typed value of a column.
func (r Record) Value(name string) any { return r.get(name) }

func (r Record) get(name string) any {
	i, ok := r.schema.index[name]
	if !ok {
		return nil
	}
	return r.values[i]
}

// Normalize coerces every row of t into s. Columns declared in s but absent
// from t take their fallback value; columns in t unknown to s are ignored.
// A batch missing any required column fails as a whole.
func Normalize(t *vitaldb.Table, s *Schema) ([]Record, error) {
	var missing []string
	for _, r := range s.Required {
		if !t.Has(r) {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaValidationError{Schema: s.Name, Missing: missing}
	}

	pos := make([]int, len(s.Columns))
	for i, c := range s.Columns {
		pos[i] = t.Col(c.Name)
	}

	out := make([]Record, t.Len())
	for r := range t.Rows {
		vals := make([]any, len(s.Columns))
		for i, c := range s.Columns {
			raw, ok := t.Cell(r, pos[i])
			vals[i] = Coerce(c, raw, ok)
		}
		out[r] = Record{schema: s, values: vals}
	}
	return out, nil
}

// Coerce applies the rule for c to one raw cell. present is false when the
// column or the cell does not exist.
func Coerce(c Column, raw string, present bool) any {
	if !present {
		raw = ""
	}
	switch c.Kind {
	case KindTimestamp:
		return parseInt(raw, timestampFallback, math.MinInt64, math.MaxInt64)
	case KindInteger:
		return parseInt(raw, integerFallback, math.MinInt32, math.MaxInt32)
	case KindNumeric:
		return parseNumeric(raw, c)
	case KindFloat:
		v, ok := parseFloat(raw)
		if !ok {
			return math.NaN()
		}
		return v
	case KindVarchar:
		return truncate(strings.TrimSpace(raw), c.MaxLen)
	case KindText:
		return strings.TrimSpace(raw)
	default:
		return nil
	}
}

func parseFloat(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func parseInt(raw string, fallback, lo, hi int64) int64 {
	v, ok := parseFloat(raw)
	if !ok || math.IsInf(v, 0) {
		return fallback
	}
	v = math.Trunc(v)
	if v <= float64(lo) {
		return lo
	}
	if v >= float64(hi) {
		return hi
	}
	return int64(v)
}

func parseNumeric(raw string, c Column) float64 {
	v, ok := parseFloat(raw)
	if !ok {
		return numericFallback
	}
	if !math.IsInf(v, 0) {
		scale := math.Pow(10, float64(c.Scale))
		v = math.RoundToEven(v*scale) / scale
	}
	lo, hi := c.Bounds()
	return math.Min(math.Max(v, lo), hi)
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
