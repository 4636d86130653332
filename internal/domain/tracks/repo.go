package tracks

import (
	"context"
	"errors"

	"github.com/vitallab/vitallab/internal/series"
)

var ErrNotFound = errors.New("track not found")

// Repository reads track metadata and samples.
type Repository interface {
	GetByID(ctx context.Context, tid string) (*Track, error)
	List(ctx context.Context, skip, limit int) ([]*Track, error)
	ListByCase(ctx context.Context, caseID int64) ([]*Track, error)
	// CaseIDs returns the distinct case ids that have tracks, ascending.
	CaseIDs(ctx context.Context) ([]int64, error)
	Data(ctx context.Context, tid string) ([]series.Point, error)
}

// Store persists track metadata and replaces a track's samples.
type Store interface {
	Upsert(ctx context.Context, tracks []*Track) error
	// ReplaceData deletes every stored sample of tid and inserts pts, as one
	// unit.
	ReplaceData(ctx context.Context, tid string, pts []series.Point) error
}
