package tracks

import (
	"context"
	"fmt"
	"sort"

	"github.com/vitallab/vitallab/internal/normalize"
	"github.com/vitallab/vitallab/internal/platform/vitaldb"
	"github.com/vitallab/vitallab/internal/series"
	"github.com/vitallab/vitallab/pkg/pagination"
)

// RemoteRepo answers track reads straight from VitalDB.
type RemoteRepo struct {
	src vitaldb.Source
}

func NewRemoteRepo(src vitaldb.Source) *RemoteRepo { return &RemoteRepo{src: src} }

var _ Repository = (*RemoteRepo)(nil)

func (r *RemoteRepo) GetByID(ctx context.Context, tid string) (*Track, error) {
	all, err := load(ctx, r.src)
	if err != nil {
		return nil, err
	}
	i := sort.Search(len(all), func(i int) bool { return all[i].TID >= tid })
	if i < len(all) && all[i].TID == tid {
		return all[i], nil
	}
	return nil, ErrNotFound
}

func (r *RemoteRepo) List(ctx context.Context, skip, limit int) ([]*Track, error) {
	all, err := load(ctx, r.src)
	if err != nil {
		return nil, err
	}
	return pagination.Window(all, pagination.Params{Skip: skip, Limit: limit}), nil
}

func (r *RemoteRepo) ListByCase(ctx context.Context, caseID int64) ([]*Track, error) {
	all, err := load(ctx, r.src)
	if err != nil {
		return nil, err
	}
	return byCase(all, caseID), nil
}

func (r *RemoteRepo) CaseIDs(ctx context.Context) ([]int64, error) {
	all, err := load(ctx, r.src)
	if err != nil {
		return nil, err
	}
	return caseIDs(all), nil
}

// Data fetches and decodes the samples of tid. The track name decides the
// decoding, so unknown tids are not found.
func (r *RemoteRepo) Data(ctx context.Context, tid string) ([]series.Point, error) {
	t, err := r.GetByID(ctx, tid)
	if err != nil {
		return nil, err
	}
	table, err := vitaldb.FetchTable(ctx, r.src, tid)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return []series.Point{}, nil
	}
	return series.Decode(table, t.TName)
}

func byCase(all []*Track, caseID int64) []*Track {
	out := []*Track{}
	for _, t := range all {
		if t.CaseID == caseID {
			out = append(out, t)
		}
	}
	return out
}

func caseIDs(all []*Track) []int64 {
	seen := map[int64]bool{}
	ids := []int64{}
	for _, t := range all {
		if !seen[t.CaseID] {
			seen[t.CaseID] = true
			ids = append(ids, t.CaseID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// load fetches the track list from src, ordered by tid.
func load(ctx context.Context, src vitaldb.Source) ([]*Track, error) {
	table, err := vitaldb.FetchTable(ctx, src, vitaldb.ResourceTracks)
	if err != nil {
		return nil, fmt.Errorf("load tracks: %w", err)
	}
	records, err := normalize.Normalize(table, trackSchema)
	if err != nil {
		return nil, fmt.Errorf("load tracks: %w", err)
	}
	out := make([]*Track, len(records))
	for i, rec := range records {
		out[i] = fromRecord(rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TID < out[j].TID })
	return out, nil
}
