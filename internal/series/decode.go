// Package series decodes track payloads into ordered time series and
// computes the reductions served to clients: time windows, signal subsets,
// index-based downsampling and NaN-safe statistics.
package series

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/vitallab/vitallab/internal/platform/vitaldb"
)

// Point is one sample of a track.
type Point struct {
	Time  float64 `json:"time_point"`
	Value float64 `json:"value"`
}

var waveformMarkers = []string{"_WAV", "WAV_", "WAVE"}

// IsWaveform reports whether a track name denotes a fixed-rate waveform.
func IsWaveform(name string) bool {
	for _, m := range waveformMarkers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// InsufficientWaveformDataError is returned for waveform payloads with fewer
// than the three header rows, or whose start, interval or end is NaN or
// infinite.
type InsufficientWaveformDataError struct {
	Track string
	Rows  int
}

func (e *InsufficientWaveformDataError) Error() string {
	if e.Rows >= 3 {
		return fmt.Sprintf("waveform track %q has a non-finite header", e.Track)
	}
	return fmt.Sprintf("waveform track %q needs at least 3 rows, got %d", e.Track, e.Rows)
}

// ShapeError is returned when a series payload does not have exactly a time
// and a value column.
type ShapeError struct {
	Track   string
	Columns int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("track %q payload has %d columns, want 2", e.Track, e.Columns)
}

// Decode turns a two-column track payload into points sorted by time.
//
// Waveform tracks carry start, interval and end in the first column of rows
// 0, 1 and 2; values start at row 3 and are spread evenly over [start, end].
// Numeric tracks carry an explicit time per row. In both cases values that
// do not parse are dropped, never substituted.
func Decode(t *vitaldb.Table, name string) ([]Point, error) {
	if len(t.Header) != 2 {
		return nil, &ShapeError{Track: name, Columns: len(t.Header)}
	}

	var pts []Point
	if IsWaveform(name) {
		var err error
		if pts, err = decodeWaveform(t.Rows, name); err != nil {
			return nil, err
		}
	} else {
		pts = decodeNumeric(t.Rows)
	}

	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Time < pts[j].Time })
	return pts, nil
}

func decodeWaveform(rows [][]string, name string) ([]Point, error) {
	if len(rows) < 3 {
		return nil, &InsufficientWaveformDataError{Track: name, Rows: len(rows)}
	}

	header := func(i int, what string) (float64, error) {
		v, err := headerValue(rows[i], what)
		if errors.Is(err, errNonFiniteHeader) {
			return 0, &InsufficientWaveformDataError{Track: name, Rows: len(rows)}
		}
		if err != nil {
			return 0, fmt.Errorf("waveform track %q: %w", name, err)
		}
		return v, nil
	}

	start, err := header(0, "start")
	if err != nil {
		return nil, err
	}
	// rows[1] holds the sampling interval; the axis is rebuilt from start and
	// end so the interval is only validated.
	if _, err := header(1, "interval"); err != nil {
		return nil, err
	}
	end, err := header(2, "end")
	if err != nil {
		return nil, err
	}

	values := make([]float64, 0, len(rows)-3)
	for _, row := range rows[3:] {
		if v, ok := cell(row, 1); ok {
			values = append(values, v)
		}
	}

	axis := Linspace(start, end, len(values))
	pts := make([]Point, len(values))
	for i, v := range values {
		pts[i] = Point{Time: axis[i], Value: v}
	}
	return pts, nil
}

func decodeNumeric(rows [][]string) []Point {
	pts := make([]Point, 0, len(rows))
	for _, row := range rows {
		tp, ok := cell(row, 0)
		if !ok {
			continue
		}
		v, ok := cell(row, 1)
		if !ok {
			continue
		}
		pts = append(pts, Point{Time: tp, Value: v})
	}
	return pts
}

func headerValue(row []string, what string) (float64, error) {
	if len(row) == 0 {
		return 0, fmt.Errorf("missing %s", what)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, row[0])
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNonFiniteHeader
	}
	return v, nil
}

var errNonFiniteHeader = errors.New("non-finite waveform header")

// cell parses column i of row; empty, unparsable and non-finite cells are
// missing.
func cell(row []string, i int) (float64, bool) {
	if i >= len(row) {
		return 0, false
	}
	s := strings.TrimSpace(row[i])
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Linspace returns n evenly spaced values over [start, stop], both included.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
