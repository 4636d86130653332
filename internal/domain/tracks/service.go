package tracks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vitallab/vitallab/internal/platform/metrics"
	"github.com/vitallab/vitallab/internal/platform/vitaldb"
	"github.com/vitallab/vitallab/internal/series"
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
	return &Service{repo: repo, store: store, source: source, logger: logger.With().Str("component", "tracks").Logger()}
}

func (s *Service) GetTrack(ctx context.Context, tid string) (*Track, error) {
	return s.repo.GetByID(ctx, tid)
}

func (s *Service) ListTracks(ctx context.Context, skip, limit int) ([]*Track, error) {
	return s.repo.List(ctx, skip, limit)
}

func (s *Service) CaseTracks(ctx context.Context, caseID int64) ([]*Track, error) {
	return s.repo.ListByCase(ctx, caseID)
}

// TrackData returns the samples of tid ordered by time, keeping at most
// resolution of them when resolution > 0.
func (s *Service) TrackData(ctx context.Context, tid string, resolution int) ([]series.Point, error) {
	pts, err := s.repo.Data(ctx, tid)
	if err != nil {
		return nil, err
	}
	return series.DownsamplePoints(pts, resolution), nil
}

// SyncOptions narrows a track sync.
type SyncOptions struct {
	// CaseID restricts the sync to the tracks of one case.
	CaseID *int64
	// Concurrency bounds how many tracks are written at once.
	Concurrency int
}

// SyncResult tallies a track sync. Tracks counts the metadata rows upserted.
type SyncResult struct {
	Tracks    int   `json:"tracks"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	Points    int64 `json:"points"`
}

// Sync upserts track metadata and then replaces the samples of every track.
// Metadata and persistence setup failures are returned. A failure on one
// track's samples is logged and counted, and the remaining tracks still run.
func (s *Service) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	if s.store == nil || s.source == nil {
		return nil, fmt.Errorf("track sync is not configured")
	}
	start := time.Now()
	defer func() {
		metrics.SyncDuration.WithLabelValues("tracks").Observe(time.Since(start).Seconds())
	}()

	all, err := load(ctx, s.source)
	if err != nil {
		return nil, err
	}
	if opts.CaseID != nil {
		all = byCase(all, *opts.CaseID)
	}
	res := &SyncResult{}
	if len(all) == 0 {
		ev := s.logger.Warn()
		if opts.CaseID != nil {
			ev = ev.Int64("caseid", *opts.CaseID)
		}
		ev.Msg("remote returned no tracks")
		return res, nil
	}

	if err := s.store.Upsert(ctx, all); err != nil {
		return nil, fmt.Errorf("upsert tracks: %w", err)
	}
	res.Tracks = len(all)
	s.logger.Info().Int("tracks", len(all)).Msg("track metadata synchronized")

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(max(opts.Concurrency, 1))
	for i, t := range all {
		g.Go(func() error {
			log := s.logger.With().Str("tid", t.TID).Str("tname", t.TName).Logger()
			log.Debug().Msgf("[%d/%d] synchronizing", i+1, len(all))

			n, err := s.syncData(ctx, t)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				metrics.SyncItems.WithLabelValues("tracks", "error").Inc()
				log.Error().Err(err).Msg("track sync failed")
				return nil
			}
			res.Succeeded++
			res.Points += int64(n)
			metrics.SyncItems.WithLabelValues("tracks", "ok").Inc()
			metrics.SyncPoints.Add(float64(n))
			log.Info().Int("points", n).Msg("track synchronized")
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info().
		Int("total", len(all)).
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Int64("points", res.Points).
		Dur("took", time.Since(start)).
		Msg("track sync complete")
	return res, nil
}

// syncData fetches, decodes and stores the samples of one track. A payload
// that yields no points leaves the stored samples untouched.
func (s *Service) syncData(ctx context.Context, t *Track) (int, error) {
	table, err := vitaldb.FetchTable(ctx, s.source, t.TID)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	if table.Len() == 0 {
		s.logger.Warn().Str("tid", t.TID).Msg("track payload is empty")
		return 0, nil
	}
	pts, err := series.Decode(table, t.TName)
	if err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if len(pts) == 0 {
		s.logger.Warn().Str("tid", t.TID).Int("rows", table.Len()).Msg("track payload has no valid samples")
		return 0, nil
	}
	if err := s.store.ReplaceData(ctx, t.TID, pts); err != nil {
		return 0, fmt.Errorf("store: %w", err)
	}
	return len(pts), nil
}
