package labs

import (
	"context"
	"fmt"

	"github.com/vitallab/vitallab/internal/normalize"
	"github.com/vitallab/vitallab/internal/platform/vitaldb"
)

// RemoteRepo answers lab reads straight from VitalDB, in upstream row order.
type RemoteRepo struct {
	src vitaldb.Source
}

func NewRemoteRepo(src vitaldb.Source) *RemoteRepo { return &RemoteRepo{src: src} }

var _ Repository = (*RemoteRepo)(nil)

func (r *RemoteRepo) ListByCase(ctx context.Context, caseID int64) ([]*Lab, error) {
	all, err := load(ctx, r.src)
	if err != nil {
		return nil, err
	}
	return filter(all, func(l *Lab) bool { return l.CaseID == caseID }), nil
}

func (r *RemoteRepo) ListByName(ctx context.Context, name string) ([]*Lab, error) {
	all, err := load(ctx, r.src)
	if err != nil {
		return nil, err
	}
	return filter(all, func(l *Lab) bool { return l.Name == name }), nil
}

func filter(all []*Lab, keep func(*Lab) bool) []*Lab {
	out := []*Lab{}
	for _, l := range all {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func load(ctx context.Context, src vitaldb.Source) ([]*Lab, error) {
	table, err := vitaldb.FetchTable(ctx, src, vitaldb.ResourceLabs)
	if err != nil {
		return nil, fmt.Errorf("load labs: %w", err)
	}
	records, err := normalize.Normalize(table, labSchema)
	if err != nil {
		return nil, fmt.Errorf("load labs: %w", err)
	}
	out := make([]*Lab, len(records))
	for i, rec := range records {
		out[i] = fromRecord(rec)
	}
	return out, nil
}
