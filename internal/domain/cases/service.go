package cases

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitallab/vitallab/internal/normalize"
	"github.com/vitallab/vitallab/internal/platform/metrics"
	"github.com/vitallab/vitallab/internal/platform/vitaldb"
	"github.com/vitallab/vitallab/internal/platform/wire"
)

type Service struct {
	repo   Repository
	store  Store
	source vitaldb.Source
	logger zerolog.Logger
}

// NewService wires the read repository. store and source are only needed
// for Sync and may be nil on a read-only server.
func NewService(repo Repository, store Store, source vitaldb.Source, logger zerolog.Logger) *Service {
	return &Service{repo: repo, store: store, source: source, logger: logger.With().Str("component", "cases").Logger()}
}

func (s *Service) GetCase(ctx context.Context, caseID int64) (*Case, error) {
	return s.repo.GetByID(ctx, caseID)
}

func (s *Service) ListCases(ctx context.Context, f Filter, skip, limit int) ([]*Case, error) {
	return s.repo.List(ctx, f, skip, limit)
}

func (s *Service) ListByDepartment(ctx context.Context, department string, skip, limit int) ([]*Case, error) {
	return s.repo.List(ctx, Filter{Department: department}, skip, limit)
}

func (s *Service) RecentCases(ctx context.Context, limit int) ([]*Case, error) {
	return s.repo.Recent(ctx, limit)
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	return s.repo.Summary(ctx)
}

// DepartmentStats folds every case into per-department totals.
func (s *Service) DepartmentStats(ctx context.Context) (map[string]*DepartmentStats, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return foldDepartments(all), nil
}

// SurgeryStats folds every case into per-optype totals.
func (s *Service) SurgeryStats(ctx context.Context) (map[string]*SurgeryStats, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return foldSurgeries(all), nil
}

type deptAcc struct {
	total, emergency, deaths int64
	ageSum, surgerySum       float64
}

func foldDepartments(all []*Case) map[string]*DepartmentStats {
	acc := map[string]*deptAcc{}
	for _, c := range all {
		a, ok := acc[c.Department]
		if !ok {
			a = &deptAcc{}
			acc[c.Department] = a
		}
		a.total++
		a.ageSum += float64(c.Age)
		a.emergency += c.EmOp
		a.deaths += c.DeathInHosp
		a.surgerySum += float64(c.OpEnd - c.OpStart)
	}

	out := make(map[string]*DepartmentStats, len(acc))
	for dept, a := range acc {
		n := int(a.total)
		out[dept] = &DepartmentStats{
			TotalCases:     n,
			EmergencyCases: a.emergency,
			DeathCases:     a.deaths,
			AvgAge:         ratio(a.ageSum, n, 1),
			EmergencyRate:  ratio(float64(a.emergency), n, 100),
			MortalityRate:  ratio(float64(a.deaths), n, 100),
			AvgSurgeryTime: ratio(a.surgerySum, n, 1),
		}
	}
	return out
}

type surgeryAcc struct {
	total, icu int
	approaches map[string]int
	surgerySum float64
}

func foldSurgeries(all []*Case) map[string]*SurgeryStats {
	acc := map[string]*surgeryAcc{}
	for _, c := range all {
		a, ok := acc[c.OpType]
		if !ok {
			a = &surgeryAcc{approaches: map[string]int{}}
			acc[c.OpType] = a
		}
		a.total++
		a.approaches[c.Approach]++
		a.surgerySum += float64(c.OpEnd - c.OpStart)
		if c.ICUDays > 0 {
			a.icu++
		}
	}

	out := make(map[string]*SurgeryStats, len(acc))
	for optype, a := range acc {
		out[optype] = &SurgeryStats{
			TotalCases:     a.total,
			Approaches:     a.approaches,
			ICUCases:       a.icu,
			AvgSurgeryTime: ratio(a.surgerySum, a.total, 1),
			ICURate:        ratio(float64(a.icu), a.total, 100),
		}
	}
	return out
}

// ratio returns sum*scale/n, or 0 for an empty group.
func ratio(sum float64, n int, scale float64) wire.Float {
	if n == 0 {
		return 0
	}
	return wire.Float(sum * scale / float64(n))
}

func orZero(v *float64) wire.Float {
	if v == nil {
		return 0
	}
	return wire.Float(*v)
}

// Sync pulls the full case table from VitalDB and upserts it in one
// transaction. It returns (succeeded, failed); a schema or database failure
// aborts the whole batch and is returned as an error.
func (s *Service) Sync(ctx context.Context) (int, int, error) {
	if s.store == nil || s.source == nil {
		return 0, 0, fmt.Errorf("case sync is not configured")
	}
	start := time.Now()
	defer func() {
		metrics.SyncDuration.WithLabelValues("cases").Observe(time.Since(start).Seconds())
	}()

	table, err := vitaldb.FetchTable(ctx, s.source, vitaldb.ResourceCases)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch cases: %w", err)
	}
	if table.Len() == 0 {
		s.logger.Warn().Msg("remote returned no cases")
		return 0, 0, nil
	}

	records, err := normalize.Normalize(table, caseSchema)
	if err != nil {
		metrics.SyncItems.WithLabelValues("cases", "error").Add(float64(table.Len()))
		return 0, 0, fmt.Errorf("normalize cases: %w", err)
	}
	batch := make([]*Case, len(records))
	for i, rec := range records {
		batch[i] = fromRecord(rec)
	}

	if err := s.store.Upsert(ctx, batch); err != nil {
		metrics.SyncItems.WithLabelValues("cases", "error").Add(float64(len(batch)))
		return 0, 0, fmt.Errorf("upsert cases: %w", err)
	}

	metrics.SyncItems.WithLabelValues("cases", "ok").Add(float64(len(batch)))
	s.logger.Info().Int("succeeded", len(batch)).Dur("took", time.Since(start)).Msg("case sync complete")
	return len(batch), 0, nil
}
