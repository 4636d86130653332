package vitals

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vitallab/vitallab/internal/domain/cases"
	"github.com/vitallab/vitallab/internal/platform/cache"
	"github.com/vitallab/vitallab/internal/platform/wire"
	"github.com/vitallab/vitallab/internal/series"
)

// DefaultResolution caps the rows returned by Data when the caller gives no
// resolution.
const DefaultResolution = 500

const noSignalsMessage = "No valid signals found"

// CaseLookup resolves a case for its clinical projection.
type CaseLookup interface {
	GetCase(ctx context.Context, caseID int64) (*cases.Case, error)
}

// ClinicalInfo is the demographic and operation summary shown next to a
// case's signals. Missing values are null.
type ClinicalInfo struct {
	CaseID     int64      `json:"caseid"`
	Age        *int64     `json:"age"`
	Sex        *string    `json:"sex"`
	Height     wire.Float `json:"height"`
	Weight     wire.Float `json:"weight"`
	BMI        wire.Float `json:"bmi"`
	ASA        *int64     `json:"asa"`
	Department *string    `json:"department"`
	DX         *string    `json:"dx"`
	OpName     *string    `json:"opname"`
}

// Query selects rows and signals of a case table. Nil bounds are open; an
// empty Signals keeps every signal.
type Query struct {
	Signals    []string
	Start      *float64
	End        *float64
	Resolution int
}

type Meta struct {
	OriginalPoints int        `json:"original_points"`
	ReturnedPoints int        `json:"returned_points"`
	StartTime      wire.Float `json:"start_time"`
	EndTime        wire.Float `json:"end_time"`
	Message        string     `json:"message,omitempty"`
}

type DataResult struct {
	Data []map[string]wire.Float `json:"data"`
	Meta Meta                    `json:"meta"`
}

type Service struct {
	source   TableSource
	cases    CaseLookup
	tables   *cache.Memo[int64, *series.Frame]
	clinical *cache.Memo[int64, *ClinicalInfo]
	logger   zerolog.Logger
}

// NewService builds the viewer service. Case tables and clinical summaries
// are loaded once per case and kept for the life of the service.
func NewService(source TableSource, lookup CaseLookup, logger zerolog.Logger) *Service {
	return &Service{
		source:   source,
		cases:    lookup,
		tables:   cache.NewMemo[int64, *series.Frame]("vitals_tables"),
		clinical: cache.NewMemo[int64, *ClinicalInfo]("vitals_clinical"),
		logger:   logger.With().Str("component", "vitals").Logger(),
	}
}

func (s *Service) table(ctx context.Context, caseID int64) (*series.Frame, error) {
	return s.tables.Get(ctx, caseID, func(ctx context.Context) (*series.Frame, error) {
		f, err := s.source.Load(ctx, caseID)
		if err != nil {
			return nil, err
		}
		s.logger.Info().Int64("caseid", caseID).Int("rows", f.Len()).Int("signals", len(f.Signals())).Msg("case table loaded")
		return f, nil
	})
}

// Signals returns the signal names of a case in column order.
func (s *Service) Signals(ctx context.Context, caseID int64) ([]string, error) {
	f, err := s.table(ctx, caseID)
	if err != nil {
		return nil, err
	}
	names := f.Signals()
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Data windows, selects and downsamples a case table.
func (s *Service) Data(ctx context.Context, caseID int64, q Query) (*DataResult, error) {
	f, err := s.table(ctx, caseID)
	if err != nil {
		return nil, err
	}
	f = f.Window(q.Start, q.End)

	if len(q.Signals) > 0 {
		f = f.Select(q.Signals)
		if len(f.Signals()) == 0 {
			return emptyResult(), nil
		}
	}

	resolution := q.Resolution
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	original := f.Len()
	f = f.Downsample(resolution)
	lo, hi := f.Span()

	return &DataResult{
		Data: f.Records(),
		Meta: Meta{
			OriginalPoints: original,
			ReturnedPoints: f.Len(),
			StartTime:      wire.Float(lo),
			EndTime:        wire.Float(hi),
		},
	}, nil
}

func emptyResult() *DataResult {
	null := wire.F(nan)
	return &DataResult{
		Data: []map[string]wire.Float{},
		Meta: Meta{StartTime: null, EndTime: null, Message: noSignalsMessage},
	}
}

// Statistics summarizes each requested signal over the time window. Unknown
// signals are left out; an empty request covers every signal.
func (s *Service) Statistics(ctx context.Context, caseID int64, signals []string, start, end *float64) (map[string]series.Stats, error) {
	f, err := s.table(ctx, caseID)
	if err != nil {
		return nil, err
	}
	f = f.Window(start, end)
	if len(signals) == 0 {
		signals = f.Signals()
	}

	out := make(map[string]series.Stats, len(signals))
	for _, name := range signals {
		if name == series.TimeColumn || !f.Has(name) {
			continue
		}
		out[name] = series.ComputeStats(f.Column(name))
	}
	return out, nil
}

// ClinicalInfo projects the case record of caseID.
func (s *Service) ClinicalInfo(ctx context.Context, caseID int64) (*ClinicalInfo, error) {
	return s.clinical.Get(ctx, caseID, func(ctx context.Context) (*ClinicalInfo, error) {
		c, err := s.cases.GetCase(ctx, caseID)
		if err != nil {
			return nil, err
		}
		return project(c), nil
	})
}

// CaseIDs lists the cases that have a signal table.
func (s *Service) CaseIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.source.CaseIDs(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}
