package labs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitallab/vitallab/internal/platform/metrics"
	"github.com/vitallab/vitallab/internal/platform/vitaldb"
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
	return &Service{repo: repo, store: store, source: source, logger: logger.With().Str("component", "labs").Logger()}
}

func (s *Service) CaseLabs(ctx context.Context, caseID int64) ([]*Lab, error) {
	return s.repo.ListByCase(ctx, caseID)
}

func (s *Service) LabsByName(ctx context.Context, name string) ([]*Lab, error) {
	return s.repo.ListByName(ctx, name)
}

// SyncResult tallies a lab sync. Skipped rows were already stored.
type SyncResult struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// Sync appends the remote lab table, optionally restricted to one case, in
// one transaction. Any failure aborts the whole batch.
func (s *Service) Sync(ctx context.Context, caseID *int64) (*SyncResult, error) {
	if s.store == nil || s.source == nil {
		return nil, fmt.Errorf("lab sync is not configured")
	}
	start := time.Now()
	defer func() {
		metrics.SyncDuration.WithLabelValues("labs").Observe(time.Since(start).Seconds())
	}()

	all, err := load(ctx, s.source)
	if err != nil {
		return nil, err
	}
	if caseID != nil {
		id := *caseID
		all = filter(all, func(l *Lab) bool { return l.CaseID == id })
	}
	res := &SyncResult{Fetched: len(all)}
	if len(all) == 0 {
		s.logger.Warn().Msg("remote returned no labs")
		return res, nil
	}

	n, err := s.store.Append(ctx, all)
	if err != nil {
		metrics.SyncItems.WithLabelValues("labs", "error").Add(float64(len(all)))
		return nil, fmt.Errorf("append labs: %w", err)
	}
	res.Inserted = n
	res.Skipped = len(all) - n

	metrics.SyncItems.WithLabelValues("labs", "ok").Add(float64(n))
	s.logger.Info().
		Int("fetched", res.Fetched).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Dur("took", time.Since(start)).
		Msg("lab sync complete")
	return res, nil
}
