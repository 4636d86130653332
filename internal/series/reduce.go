package series

import (
	"math"

	"github.com/vitallab/vitallab/internal/platform/wire"
)

// DownsampleIndices picks resolution row indices spread evenly over [0, n-1].
// Index i is trunc(i*(n-1)/(resolution-1)); the first and last rows are
// always included. When n <= resolution every index is returned.
func DownsampleIndices(n, resolution int) []int {
	if n <= 0 {
		return []int{}
	}
	if resolution <= 0 || n <= resolution {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	if resolution == 1 {
		return []int{0}
	}
	step := float64(n-1) / float64(resolution-1)
	idx := make([]int, resolution)
	for i := range idx {
		idx[i] = int(float64(i) * step)
	}
	idx[resolution-1] = n - 1
	return idx
}

// DownsamplePoints applies DownsampleIndices to a point series.
func DownsamplePoints(pts []Point, resolution int) []Point {
	if resolution <= 0 || len(pts) <= resolution {
		return pts
	}
	idx := DownsampleIndices(len(pts), resolution)
	out := make([]Point, len(idx))
	for i, j := range idx {
		out[i] = pts[j]
	}
	return out
}

// Stats summarizes one signal. Non-finite results serialize as null.
type Stats struct {
	Min     wire.Float `json:"min"`
	Max     wire.Float `json:"max"`
	Mean    wire.Float `json:"mean"`
	Std     wire.Float `json:"std"`
	Count   int        `json:"count"`
	Missing int        `json:"missing"`
}

// ComputeStats reduces values, ignoring NaN and infinite samples. Std is the
// sample standard deviation and is undefined for fewer than two values.
func ComputeStats(values []float64) Stats {
	nan := wire.Float(math.NaN())
	s := Stats{Min: nan, Max: nan, Mean: nan, Std: nan}

	var sum float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		s.Count++
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	s.Missing = len(values) - s.Count
	if s.Count == 0 {
		return s
	}

	mean := sum / float64(s.Count)
	s.Min, s.Max, s.Mean = wire.Float(lo), wire.Float(hi), wire.Float(mean)

	if s.Count > 1 {
		var sq float64
		for _, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			d := v - mean
			sq += d * d
		}
		s.Std = wire.Float(math.Sqrt(sq / float64(s.Count-1)))
	}
	return s
}
