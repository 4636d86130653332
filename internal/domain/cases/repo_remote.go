package cases

import (
	"context"
	"fmt"
	"sort"

	"github.com/vitallab/vitallab/internal/normalize"
	"github.com/vitallab/vitallab/internal/platform/vitaldb"
	"github.com/vitallab/vitallab/pkg/pagination"
)

// RemoteRepo answers case reads straight from VitalDB. Every call loads the
// full case table through src, so src should be cached.
type RemoteRepo struct {
	src vitaldb.Source
}

func NewRemoteRepo(src vitaldb.Source) *RemoteRepo { return &RemoteRepo{src: src} }

var _ Repository = (*RemoteRepo)(nil)

// All fetches and normalizes the full case table, ordered by caseid.
func (r *RemoteRepo) All(ctx context.Context) ([]*Case, error) {
	return load(ctx, r.src)
}

func (r *RemoteRepo) GetByID(ctx context.Context, caseID int64) (*Case, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	i := sort.Search(len(all), func(i int) bool { return all[i].CaseID >= caseID })
	if i < len(all) && all[i].CaseID == caseID {
		return all[i], nil
	}
	return nil, ErrNotFound
}

func (r *RemoteRepo) List(ctx context.Context, f Filter, skip, limit int) ([]*Case, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]*Case, 0, len(all))
	for _, c := range all {
		if f.Match(c) {
			matched = append(matched, c)
		}
	}
	return pagination.Window(matched, pagination.Params{Skip: skip, Limit: limit}), nil
}

func (r *RemoteRepo) Recent(ctx context.Context, limit int) ([]*Case, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Case, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Summary folds the case table in memory.
func (r *RemoteRepo) Summary(ctx context.Context) (*Summary, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(all), nil
}

func summarize(all []*Case) *Summary {
	s := &Summary{TotalCases: len(all), Departments: map[string]int{}}
	var ageSum float64
	var aged, emergency, deaths int
	for _, c := range all {
		s.Departments[c.Department]++
		if c.Age > 0 {
			ageSum += float64(c.Age)
			aged++
		}
		if c.EmOp == 1 {
			emergency++
		}
		if c.DeathInHosp == 1 {
			deaths++
		}
	}
	s.AvgAge = ratio(ageSum, aged, 1)
	s.EmergencyRate = ratio(float64(emergency), len(all), 100)
	s.MortalityRate = ratio(float64(deaths), len(all), 100)
	return s
}

// load fetches the case table from src and converts it into cases sorted by
// caseid.
func load(ctx context.Context, src vitaldb.Source) ([]*Case, error) {
	table, err := vitaldb.FetchTable(ctx, src, vitaldb.ResourceCases)
	if err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}
	records, err := normalize.Normalize(table, caseSchema)
	if err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}
	out := make([]*Case, len(records))
	for i, rec := range records {
		out[i] = fromRecord(rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out, nil
}
