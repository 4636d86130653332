package labs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitallab/vitallab/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const appendChunk = 500

// LabRepoPG is the local store. It implements both Repository and Store.
type LabRepoPG struct{ pool *pgxpool.Pool }

func NewLabRepoPG(pool *pgxpool.Pool) *LabRepoPG { return &LabRepoPG{pool: pool} }

var (
	_ Repository = (*LabRepoPG)(nil)
	_ Store      = (*LabRepoPG)(nil)
)

func (r *LabRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const (
	labCols = `caseid, dt, name, result, created_at`

	appendLabSQL = `INSERT INTO labs (caseid, dt, name, result)
		SELECT $1::integer, $2::integer, $3::varchar, $4::double precision
		WHERE NOT EXISTS (SELECT 1 FROM labs WHERE caseid = $1 AND dt = $2 AND name = $3)`
)

func scanLab(row pgx.Row) (*Lab, error) {
	var l Lab
	var result *float64
	if err := row.Scan(&l.CaseID, &l.DT, &l.Name, &result, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.Result = resultFrom(result)
	return &l, nil
}

func (r *LabRepoPG) ListByCase(ctx context.Context, caseID int64) ([]*Lab, error) {
	return r.query(ctx, `SELECT `+labCols+` FROM labs WHERE caseid = $1 ORDER BY dt, name, id`, caseID)
}

func (r *LabRepoPG) ListByName(ctx context.Context, name string) ([]*Lab, error) {
	return r.query(ctx, `SELECT `+labCols+` FROM labs WHERE name = $1 ORDER BY caseid, dt, id`, name)
}

func (r *LabRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Lab, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, db.Wrap("list labs", err)
	}
	defer rows.Close()
	items := []*Lab{}
	for rows.Next() {
		l, err := scanLab(rows)
		if err != nil {
			return nil, db.Wrap("scan lab", err)
		}
		items = append(items, l)
	}
	return items, db.Wrap("list labs", rows.Err())
}

// Append inserts labs in one transaction, skipping rows already present.
func (r *LabRepoPG) Append(ctx context.Context, labs []*Lab) (int, error) {
	inserted := 0
	err := db.InTx(ctx, r.pool, func(ctx context.Context) error {
		conn := r.conn(ctx)
		for start := 0; start < len(labs); start += appendChunk {
			end := min(start+appendChunk, len(labs))
			b := &pgx.Batch{}
			for _, l := range labs[start:end] {
				b.Queue(appendLabSQL, l.CaseID, l.DT, l.Name, l.resultArg())
			}
			n, err := execBatch(ctx, conn, b)
			if err != nil {
				return db.Wrap(fmt.Sprintf("append labs %d-%d", start, end-1), err)
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func execBatch(ctx context.Context, conn queryable, b *pgx.Batch) (int, error) {
	br := conn.SendBatch(ctx, b)
	n := 0
	for i := 0; i < b.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return 0, err
		}
		n += int(tag.RowsAffected())
	}
	return n, br.Close()
}
