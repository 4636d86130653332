package normalize

import (
	"math"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/vitallab/vitallab/internal/platform/vitaldb"
)

func testSchema() *Schema {
	return NewSchema("case", []string{"caseid", "subjectid"},
		Integer("caseid"),
		Integer("subjectid"),
		Timestamp("opstart"),
		Integer("age"),
		Numeric("height", 5, 1),
		Numeric("preop_k", 3, 1),
		Numeric("preop_cr", 4, 2),
		Numeric("digit", 1, 0),
		Varchar("sex", 1),
		Varchar("department", 100),
		Text("dx"),
	)
}

func mustTable(t *testing.T, text string) *vitaldb.Table {
	t.Helper()
	tbl, err := vitaldb.ParseCSV(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tbl
}

func mustNormalize(t *testing.T, text string) []Record {
	t.Helper()
	recs, err := Normalize(mustTable(t, text), testSchema())
	if err != nil {
		t.Fatalf("Normalize: unexpected error: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("Normalize returned no records")
	}
	return recs
}

func TestNormalize_MissingRequiredColumn(t *testing.T) {
	_, err := Normalize(mustTable(t, "caseid,age\n1,40\n"), testSchema())
	se, ok := err.(*SchemaValidationError)
	if !ok {
		t.Fatalf("expected *SchemaValidationError, got %T (%v)", err, err)
	}
	if !reflect.DeepEqual(se.Missing, []string{"subjectid"}) {
		t.Errorf("Missing = %v, want [subjectid]", se.Missing)
	}
}

func TestNormalize_MissingRequiredColumnEmptyBatch(t *testing.T) {
	_, err := Normalize(mustTable(t, "age\n"), testSchema())
	se, ok := err.(*SchemaValidationError)
	if !ok {
		t.Fatalf("expected *SchemaValidationError, got %T (%v)", err, err)
	}
	missing := append([]string(nil), se.Missing...)
	sort.Strings(missing)
	if !reflect.DeepEqual(missing, []string{"caseid", "subjectid"}) {
		t.Errorf("Missing = %v, want caseid and subjectid", se.Missing)
	}
}

func TestNormalize_FallbacksAreKeptDistinct(t *testing.T) {
	recs := mustNormalize(t, "caseid,subjectid,opstart,age\n1,2,oops,oops\n")
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if got := recs[0].Int("opstart"); got != 0 {
		t.Errorf("timestamp fallback = %d, want 0", got)
	}
	if got := recs[0].Int("age"); got != -1 {
		t.Errorf("integer fallback = %d, want -1", got)
	}
}

func TestNormalize_AbsentColumnsTakeFallbacks(t *testing.T) {
	r := mustNormalize(t, "caseid,subjectid\n7,8\n")[0]

	if r.Int("caseid") != 7 || r.Int("subjectid") != 8 {
		t.Errorf("ids = %d/%d, want 7/8", r.Int("caseid"), r.Int("subjectid"))
	}
	if r.Int("opstart") != 0 || r.Int("age") != -1 {
		t.Errorf("opstart/age = %d/%d, want 0/-1", r.Int("opstart"), r.Int("age"))
	}
	if r.Float("height") != -1 {
		t.Errorf("height = %v, want -1", r.Float("height"))
	}
	if r.Str("sex") != "" || r.Str("dx") != "" {
		t.Errorf("strings = %q/%q, want empty", r.Str("sex"), r.Str("dx"))
	}
}

func TestNormalize_IntegerTruncatesFloats(t *testing.T) {
	r := mustNormalize(t, "caseid,subjectid,age,opstart\n1.9,2,63.7,1500.5\n")[0]
	if r.Int("caseid") != 1 || r.Int("age") != 63 || r.Int("opstart") != 1500 {
		t.Errorf("caseid/age/opstart = %d/%d/%d, want 1/63/1500", r.Int("caseid"), r.Int("age"), r.Int("opstart"))
	}
}

func TestNormalize_IntegerClampsTo32Bit(t *testing.T) {
	r := mustNormalize(t, "caseid,subjectid,age,opstart\n1,2,99999999999,99999999999\n")[0]
	if r.Int("age") != math.MaxInt32 {
		t.Errorf("age = %d, want %d", r.Int("age"), math.MaxInt32)
	}
	if r.Int("opstart") != 99999999999 {
		t.Errorf("opstart = %d, timestamps are not clamped", r.Int("opstart"))
	}
}

func TestNormalize_NumericRoundsAndClamps(t *testing.T) {
	tests := []struct {
		col  string
		raw  string
		want float64
	}{
		{"height", "172.36", 172.4},
		{"height", "172.25", 172.2}, // half to even
		{"height", "123456", 9999.9},
		{"height", "-123456", -9999.9},
		{"preop_k", "4.44", 4.4},
		{"preop_k", "150", 99.9},
		{"preop_cr", "0.876", 0.88},
		{"preop_cr", "1234", 99.99},
		{"digit", "7", 7},
		{"digit", "-3", 0}, // precision 1 has no negative range
		{"digit", "42", 9},
		{"height", "n/a", -1},
		{"height", "", -1},
	}
	for _, tt := range tests {
		t.Run(tt.col+"="+tt.raw, func(t *testing.T) {
			r := mustNormalize(t, "caseid,subjectid,"+tt.col+"\n1,2,"+tt.raw+"\n")[0]
			if got := r.Float(tt.col); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("%s(%q) = %v, want %v", tt.col, tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_NumericAlwaysWithinBounds(t *testing.T) {
	s := testSchema()
	raws := []string{"1e300", "-1e300", "inf", "-inf", "0.05", "99.95", "-99.95", "12.345", "3"}
	for _, name := range []string{"height", "preop_k", "preop_cr", "digit"} {
		c, _ := s.Column(name)
		lo, hi := c.Bounds()
		scale := math.Pow(10, float64(c.Scale))
		for _, raw := range raws {
			v := Coerce(c, raw, true).(float64)
			if v < lo || v > hi {
				t.Errorf("%s=%s: %v outside [%v, %v]", name, raw, v, lo, hi)
			}
			if math.Abs(math.Round(v*scale)-v*scale) > 1e-6 {
				t.Errorf("%s=%s: %v not rounded to %d places", name, raw, v, c.Scale)
			}
		}
	}
}

func TestColumn_Bounds(t *testing.T) {
	lo, hi := Numeric("x", 4, 1).Bounds()
	if math.Abs(hi-999.9) > 1e-9 || math.Abs(lo+999.9) > 1e-9 {
		t.Errorf("Numeric(4,1).Bounds() = (%v, %v), want (-999.9, 999.9)", lo, hi)
	}

	lo, hi = Numeric("x", 1, 0).Bounds()
	if lo != 0 || hi != 9 {
		t.Errorf("Numeric(1,0).Bounds() = (%v, %v), want (0, 9)", lo, hi)
	}
}

func TestNormalize_Strings(t *testing.T) {
	long := strings.Repeat("가", 120)
	r := mustNormalize(t, "caseid,subjectid,sex,department,dx\n1,2,  Male ,"+long+",  Early gastric cancer  \n")[0]

	if r.Str("sex") != "M" {
		t.Errorf("sex = %q, want M", r.Str("sex"))
	}
	if n := len([]rune(r.Str("department"))); n != 100 {
		t.Errorf("department has %d runes, want 100", n)
	}
	if r.Str("dx") != "Early gastric cancer" {
		t.Errorf("dx = %q", r.Str("dx"))
	}
}

func TestNormalize_ShortRowsUseFallbacks(t *testing.T) {
	r := mustNormalize(t, "caseid,subjectid,age,sex\n1,2\n")[0]
	if r.Int("age") != -1 || r.Str("sex") != "" {
		t.Errorf("age/sex = %d/%q, want -1/empty", r.Int("age"), r.Str("sex"))
	}
}

func TestCoerce_Float(t *testing.T) {
	if got := Coerce(Float("result"), "12.5", true); got != 12.5 {
		t.Errorf("Coerce(12.5) = %v", got)
	}
	if got := Coerce(Float("result"), "bad", true).(float64); !math.IsNaN(got) {
		t.Errorf("Coerce(bad) = %v, want NaN", got)
	}
}

func TestNewSchema_PanicsOnUndeclaredRequired(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for an undeclared required column")
		}
	}()
	NewSchema("x", []string{"id"}, Integer("other"))
}
