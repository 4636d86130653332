package cases

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("case not found")

// Repository reads cases. It has two implementations selected at
// construction: the local Postgres mirror and a remote VitalDB passthrough.
type Repository interface {
	GetByID(ctx context.Context, caseID int64) (*Case, error)
	List(ctx context.Context, f Filter, skip, limit int) ([]*Case, error)
	Recent(ctx context.Context, limit int) ([]*Case, error)
	Summary(ctx context.Context) (*Summary, error)
	All(ctx context.Context) ([]*Case, error)
}

// Store persists a normalized case batch.
type Store interface {
	Upsert(ctx context.Context, cases []*Case) error
}
