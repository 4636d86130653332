package tracks

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitallab/vitallab/internal/platform/db"
	"github.com/vitallab/vitallab/internal/series"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	CopyFrom(ctx context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error)
}

// DefaultBatchSize is the number of samples written per COPY.
const DefaultBatchSize = 10000

const upsertChunk = 500

// TrackRepoPG is the local store. It implements both Repository and Store.
type TrackRepoPG struct {
	pool      *pgxpool.Pool
	batchSize int
}

func NewTrackRepoPG(pool *pgxpool.Pool, batchSize int) *TrackRepoPG {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &TrackRepoPG{pool: pool, batchSize: batchSize}
}

var (
	_ Repository = (*TrackRepoPG)(nil)
	_ Store      = (*TrackRepoPG)(nil)
)

func (r *TrackRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const (
	trackCols = `caseid, tname, tid`

	upsertTrackSQL = `INSERT INTO tracks (caseid, tname, tid) VALUES ($1, $2, $3)
		ON CONFLICT (tid) DO UPDATE SET caseid = EXCLUDED.caseid, tname = EXCLUDED.tname`
)

var dataCols = []string{"tid", "time_point", "value"}

func scanTrack(row pgx.Row) (*Track, error) {
	var t Track
	err := row.Scan(&t.CaseID, &t.TName, &t.TID)
	return &t, err
}

func (r *TrackRepoPG) GetByID(ctx context.Context, tid string) (*Track, error) {
	t, err := scanTrack(r.conn(ctx).QueryRow(ctx, `SELECT `+trackCols+` FROM tracks WHERE tid = $1`, tid))
	if db.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, db.Wrap("get track", err)
	}
	return t, nil
}

func (r *TrackRepoPG) List(ctx context.Context, skip, limit int) ([]*Track, error) {
	q := db.NewQuery("tracks", trackCols)
	q.OrderBy("tid")
	return r.query(ctx, q.DataSQL(), q.DataArgs(limit, skip)...)
}

func (r *TrackRepoPG) ListByCase(ctx context.Context, caseID int64) ([]*Track, error) {
	q := db.NewQuery("tracks", trackCols)
	q.Eq("caseid", caseID)
	q.OrderBy("tid")
	return r.query(ctx, q.SelectSQL(), q.Args()...)
}

func (r *TrackRepoPG) CaseIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT DISTINCT caseid FROM tracks ORDER BY caseid`)
	if err != nil {
		return nil, db.Wrap("track case ids", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, db.Wrap("track case ids", err)
	}
	return ids, nil
}

func (r *TrackRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Track, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, db.Wrap("list tracks", err)
	}
	defer rows.Close()
	items := []*Track{}
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, db.Wrap("scan track", err)
		}
		items = append(items, t)
	}
	return items, db.Wrap("list tracks", rows.Err())
}

func (r *TrackRepoPG) Data(ctx context.Context, tid string) ([]series.Point, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT time_point, value FROM track_data WHERE tid = $1 ORDER BY time_point`, tid)
	if err != nil {
		return nil, db.Wrap("track data", err)
	}
	defer rows.Close()
	pts := []series.Point{}
	for rows.Next() {
		var p series.Point
		if err := rows.Scan(&p.Time, &p.Value); err != nil {
			return nil, db.Wrap("scan track data", err)
		}
		pts = append(pts, p)
	}
	return pts, db.Wrap("track data", rows.Err())
}

// Upsert inserts or updates track metadata keyed on tid in one transaction.
func (r *TrackRepoPG) Upsert(ctx context.Context, tracks []*Track) error {
	return db.InTx(ctx, r.pool, func(ctx context.Context) error {
		conn := r.conn(ctx)
		for start := 0; start < len(tracks); start += upsertChunk {
			end := min(start+upsertChunk, len(tracks))
			b := &pgx.Batch{}
			for _, t := range tracks[start:end] {
				b.Queue(upsertTrackSQL, t.CaseID, t.TName, t.TID)
			}
			if err := conn.SendBatch(ctx, b).Close(); err != nil {
				return db.Wrap(fmt.Sprintf("upsert tracks %d-%d", start, end-1), err)
			}
		}
		return nil
	})
}

// ReplaceData deletes the stored samples of tid and copies pts in batches,
// inside one transaction. The delete always completes before the first copy.
func (r *TrackRepoPG) ReplaceData(ctx context.Context, tid string, pts []series.Point) error {
	return db.InTx(ctx, r.pool, func(ctx context.Context) error {
		conn := r.conn(ctx)
		if _, err := conn.Exec(ctx, `DELETE FROM track_data WHERE tid = $1`, tid); err != nil {
			return db.Wrap("delete track_data", err)
		}
		for start := 0; start < len(pts); start += r.batchSize {
			chunk := pts[start:min(start+r.batchSize, len(pts))]
			_, err := conn.CopyFrom(ctx, pgx.Identifier{"track_data"}, dataCols,
				pgx.CopyFromSlice(len(chunk), func(i int) ([]any, error) {
					return []any{tid, chunk[i].Time, chunk[i].Value}, nil
				}))
			if err != nil {
				return db.Wrap(fmt.Sprintf("copy track_data %s at %d", tid, start), err)
			}
		}
		return nil
	})
}
