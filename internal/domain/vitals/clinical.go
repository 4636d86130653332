package vitals

import (
	"math"

	"github.com/vitallab/vitallab/internal/domain/cases"
	"github.com/vitallab/vitallab/internal/platform/wire"
)

var nan = math.NaN()

// project maps the normalizer's sentinels (negative numbers, empty strings)
// to null.
func project(c *cases.Case) *ClinicalInfo {
	return &ClinicalInfo{
		CaseID:     c.CaseID,
		Age:        count(c.Age),
		Sex:        text(c.Sex),
		Height:     measure(c.Height),
		Weight:     measure(c.Weight),
		BMI:        measure(c.BMI),
		ASA:        count(c.ASA),
		Department: text(c.Department),
		DX:         text(c.Dx),
		OpName:     text(c.OpName),
	}
}

func count(v int64) *int64 {
	if v < 0 {
		return nil
	}
	return &v
}

func measure(v float64) wire.Float {
	if v < 0 {
		return wire.F(nan)
	}
	return wire.F(v)
}

func text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
