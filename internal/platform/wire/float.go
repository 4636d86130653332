// Package wire holds the JSON encoding rules shared by every HTTP response.
package wire

import (
	"bytes"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// Float is a float64 whose JSON form is null when the value is NaN or
// infinite. Every floating point value that leaves the API goes through this
// type, so no handler has to special-case non-finite numbers.
type Float float64

// F converts a float64 to a Float.
func F(v float64) Float { return Float(v) }

// Valid reports whether the value is finite.
func (f Float) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	v := float64(f)
	abs := math.Abs(v)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return strconv.AppendFloat(nil, v, format, -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null decodes to NaN.
func (f *Float) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Floats converts a slice of float64 to a slice of Float.
func Floats(vs []float64) []Float {
	out := make([]Float, len(vs))
	for i, v := range vs {
		out[i] = Float(v)
	}
	return out
}
