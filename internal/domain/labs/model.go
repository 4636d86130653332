package labs

import (
	"math"
	"time"

	"github.com/vitallab/vitallab/internal/normalize"
	"github.com/vitallab/vitallab/internal/platform/wire"
)

// Lab is one laboratory result of a case. A missing or unparsable result is
// NaN and renders as null.
type Lab struct {
	CaseID    int64      `json:"caseid"`
	DT        int64      `json:"dt"`
	Name      string     `json:"name"`
	Result    wire.Float `json:"result"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

var labSchema = normalize.NewSchema("labs", []string{"caseid", "dt", "name", "result"},
	normalize.Integer("caseid"),
	normalize.Integer("dt"),
	normalize.Varchar("name", 50),
	normalize.Float("result"),
)

func fromRecord(rec normalize.Record) *Lab {
	return &Lab{
		CaseID: rec.Int("caseid"),
		DT:     rec.Int("dt"),
		Name:   rec.Str("name"),
		Result: wire.Float(rec.Float("result")),
	}
}

// resultArg maps NaN to SQL NULL.
func (l *Lab) resultArg() *float64 {
	v := float64(l.Result)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func resultFrom(v *float64) wire.Float {
	if v == nil {
		return wire.Float(math.NaN())
	}
	return wire.Float(*v)
}
