package series

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/vitallab/vitallab/internal/platform/vitaldb"
	"github.com/vitallab/vitallab/internal/platform/wire"
)

// TimeColumn is the name of the shared time axis of a Frame.
const TimeColumn = "time"

// Frame is a wide table of signals sharing one time axis. Missing samples
// are NaN. Frames are immutable; every transformation returns a new Frame.
type Frame struct {
	time    []float64
	names   []string
	columns map[string][]float64
}

// NewFrame builds a Frame. Every column must have len(time) samples.
func NewFrame(time []float64, names []string, columns map[string][]float64) (*Frame, error) {
	for _, n := range names {
		col, ok := columns[n]
		if !ok {
			return nil, fmt.Errorf("frame: column %q declared but not supplied", n)
		}
		if len(col) != len(time) {
			return nil, fmt.Errorf("frame: column %q has %d samples, time has %d", n, len(col), len(time))
		}
	}
	return &Frame{time: time, names: names, columns: columns}, nil
}

// FrameFromTable reads a CSV table with a "time" column plus one column per
// signal. Unparsable cells become NaN.
func FrameFromTable(t *vitaldb.Table) (*Frame, error) {
	tc := t.Col(TimeColumn)
	if tc < 0 {
		return nil, fmt.Errorf("frame: table has no %q column", TimeColumn)
	}

	var names []string
	var idx []int
	for i, h := range t.Header {
		if i == tc || h == TimeColumn {
			continue
		}
		names = append(names, h)
		idx = append(idx, i)
	}

	n := t.Len()
	time := make([]float64, n)
	columns := make(map[string][]float64, len(names))
	for _, name := range names {
		columns[name] = make([]float64, n)
	}
	for r := 0; r < n; r++ {
		time[r] = parseCell(t, r, tc)
		for j, name := range names {
			columns[name][r] = parseCell(t, r, idx[j])
		}
	}
	return &Frame{time: time, names: names, columns: columns}, nil
}

// FrameFromSeries outer-joins several point series on time. Each series
// becomes one column named by its key; the result is ordered by time.
func FrameFromSeries(names []string, data map[string][]Point) *Frame {
	seen := make(map[float64]int)
	var time []float64
	for _, name := range names {
		for _, p := range data[name] {
			if _, ok := seen[p.Time]; !ok {
				seen[p.Time] = 0
				time = append(time, p.Time)
			}
		}
	}
	sort.Float64s(time)
	for i, tp := range time {
		seen[tp] = i
	}

	columns := make(map[string][]float64, len(names))
	for _, name := range names {
		col := make([]float64, len(time))
		for i := range col {
			col[i] = math.NaN()
		}
		for _, p := range data[name] {
			col[seen[p.Time]] = p.Value
		}
		columns[name] = col
	}
	return &Frame{time: time, names: append([]string(nil), names...), columns: columns}
}

func parseCell(t *vitaldb.Table, r, c int) float64 {
	raw, ok := t.Cell(r, c)
	if !ok {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.time) }

// Signals returns the signal names in column order.
func (f *Frame) Signals() []string { return append([]string(nil), f.names...) }

// Has reports whether the frame carries the named signal.
func (f *Frame) Has(name string) bool {
	_, ok := f.columns[name]
	return ok
}

// Column returns the samples of a signal.
func (f *Frame) Column(name string) []float64 { return f.columns[name] }

// Time returns the time axis.
func (f *Frame) Time() []float64 { return f.time }

// Window keeps rows with start <= time <= end. Nil bounds are open.
func (f *Frame) Window(start, end *float64) *Frame {
	if start == nil && end == nil {
		return f
	}
	keep := make([]int, 0, len(f.time))
	for i, tp := range f.time {
		if start != nil && !(tp >= *start) {
			continue
		}
		if end != nil && !(tp <= *end) {
			continue
		}
		keep = append(keep, i)
	}
	return f.take(keep)
}

// Select keeps the requested signals that exist, in request order. Unknown
// names are dropped silently; the result may have no signals.
func (f *Frame) Select(signals []string) *Frame {
	var names []string
	seen := make(map[string]bool, len(signals))
	for _, s := range signals {
		if s == TimeColumn || seen[s] || !f.Has(s) {
			continue
		}
		seen[s] = true
		names = append(names, s)
	}
	columns := make(map[string][]float64, len(names))
	for _, n := range names {
		columns[n] = f.columns[n]
	}
	return &Frame{time: f.time, names: names, columns: columns}
}

// Downsample keeps at most resolution rows picked by DownsampleIndices.
func (f *Frame) Downsample(resolution int) *Frame {
	if resolution <= 0 || f.Len() <= resolution {
		return f
	}
	return f.take(DownsampleIndices(f.Len(), resolution))
}

func (f *Frame) take(idx []int) *Frame {
	time := make([]float64, len(idx))
	for i, j := range idx {
		time[i] = f.time[j]
	}
	columns := make(map[string][]float64, len(f.names))
	for _, n := range f.names {
		src := f.columns[n]
		col := make([]float64, len(idx))
		for i, j := range idx {
			col[i] = src[j]
		}
		columns[n] = col
	}
	return &Frame{time: time, names: f.names, columns: columns}
}

// Span returns the smallest and largest finite time, NaN when there is none.
func (f *Frame) Span() (lo, hi float64) {
	lo, hi = math.NaN(), math.NaN()
	for _, tp := range f.time {
		if math.IsNaN(tp) || math.IsInf(tp, 0) {
			continue
		}
		if math.IsNaN(lo) || tp < lo {
			lo = tp
		}
		if math.IsNaN(hi) || tp > hi {
			hi = tp
		}
	}
	return lo, hi
}

// Records renders each row as a JSON object keyed by "time" and signal name.
func (f *Frame) Records() []map[string]wire.Float {
	out := make([]map[string]wire.Float, f.Len())
	for i := range out {
		rec := make(map[string]wire.Float, len(f.names)+1)
		rec[TimeColumn] = wire.Float(f.time[i])
		for _, n := range f.names {
			rec[n] = wire.Float(f.columns[n][i])
		}
		out[i] = rec
	}
	return out
}
