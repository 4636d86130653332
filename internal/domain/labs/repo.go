package labs

import "context"

// Repository reads lab results.
type Repository interface {
	ListByCase(ctx context.Context, caseID int64) ([]*Lab, error)
	ListByName(ctx context.Context, name string) ([]*Lab, error)
}

// Store appends lab results. Rows whose (caseid, dt, name) already exist are
// skipped, never updated.
type Store interface {
	Append(ctx context.Context, labs []*Lab) (inserted int, err error)
}
