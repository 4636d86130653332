package cases

import (
	"context"
	"fmt"
	"strings"

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

// upsertChunk bounds the statements queued per round trip.
const upsertChunk = 500

// CaseRepoPG is the local store. It implements both Repository and Store.
type CaseRepoPG struct{ pool *pgxpool.Pool }

func NewCaseRepoPG(pool *pgxpool.Pool) *CaseRepoPG { return &CaseRepoPG{pool: pool} }

var (
	_ Repository = (*CaseRepoPG)(nil)
	_ Store      = (*CaseRepoPG)(nil)
)

func (r *CaseRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

var (
	caseCols = strings.Join(caseSchema.Names(), ", ")

	upsertCaseSQL = buildUpsertSQL()
)

func buildUpsertSQL() string {
	names := caseSchema.Names()
	placeholders := make([]string, len(names))
	updates := make([]string, 0, len(names)-1)
	for i, n := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if n != "caseid" {
			updates = append(updates, n+" = EXCLUDED."+n)
		}
	}
	return "INSERT INTO cases (" + caseCols + ") VALUES (" + strings.Join(placeholders, ", ") +
		") ON CONFLICT (caseid) DO UPDATE SET " + strings.Join(updates, ", ")
}

func scanCase(row pgx.Row) (*Case, error) {
	var c Case
	err := row.Scan(c.fields()...)
	return &c, err
}

func (r *CaseRepoPG) GetByID(ctx context.Context, caseID int64) (*Case, error) {
	c, err := scanCase(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM cases WHERE caseid = $1`, caseID))
	if db.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, db.Wrap("get case", err)
	}
	return c, nil
}

func (r *CaseRepoPG) List(ctx context.Context, f Filter, skip, limit int) ([]*Case, error) {
	q := db.NewQuery("cases", caseCols)
	if f.Department != "" {
		q.Eq("department", f.Department)
	}
	if f.OpType != "" {
		q.Eq("optype", f.OpType)
	}
	if f.Approach != "" {
		q.Eq("approach", f.Approach)
	}
	if f.AgeMin != nil {
		q.Cmp("age", ">=", *f.AgeMin)
	}
	if f.AgeMax != nil {
		q.Cmp("age", "<=", *f.AgeMax)
	}
	if f.ASA != nil {
		q.Eq("asa", *f.ASA)
	}
	if f.EmOp != nil {
		q.Eq("emop", *f.EmOp)
	}
	q.OrderBy("caseid")

	return r.query(ctx, q.DataSQL(), q.DataArgs(limit, skip)...)
}

func (r *CaseRepoPG) Recent(ctx context.Context, limit int) ([]*Case, error) {
	return r.query(ctx, `SELECT `+caseCols+` FROM cases ORDER BY caseid DESC LIMIT $1`, limit)
}

func (r *CaseRepoPG) All(ctx context.Context) ([]*Case, error) {
	return r.query(ctx, `SELECT `+caseCols+` FROM cases ORDER BY caseid`)
}

func (r *CaseRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Case, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, db.Wrap("list cases", err)
	}
	defer rows.Close()
	items := []*Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, db.Wrap("scan case", err)
		}
		items = append(items, c)
	}
	return items, db.Wrap("list cases", rows.Err())
}

// Summary aggregates in the database.
func (r *CaseRepoPG) Summary(ctx context.Context) (*Summary, error) {
	conn := r.conn(ctx)
	s := &Summary{Departments: map[string]int{}}

	var avgAge, emergency, mortality *float64
	err := conn.QueryRow(ctx, `
		SELECT COUNT(*),
			AVG(age) FILTER (WHERE age > 0),
			AVG(CASE WHEN emop = 1 THEN 100.0 ELSE 0 END),
			AVG(CASE WHEN death_inhosp = 1 THEN 100.0 ELSE 0 END)
		FROM cases`).Scan(&s.TotalCases, &avgAge, &emergency, &mortality)
	if err != nil {
		return nil, db.Wrap("case summary", err)
	}
	s.AvgAge = orZero(avgAge)
	s.EmergencyRate = orZero(emergency)
	s.MortalityRate = orZero(mortality)

	rows, err := conn.Query(ctx, `SELECT COALESCE(department, ''), COUNT(*) FROM cases GROUP BY 1`)
	if err != nil {
		return nil, db.Wrap("case departments", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dept string
		var n int
		if err := rows.Scan(&dept, &n); err != nil {
			return nil, db.Wrap("scan department", err)
		}
		s.Departments[dept] = n
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap("case departments", err)
	}
	return s, nil
}

// Upsert inserts or fully updates every case keyed on caseid, all in one
// transaction. Any failure rolls back the whole batch.
func (r *CaseRepoPG) Upsert(ctx context.Context, cases []*Case) error {
	return db.InTx(ctx, r.pool, func(ctx context.Context) error {
		conn := r.conn(ctx)
		for start := 0; start < len(cases); start += upsertChunk {
			end := min(start+upsertChunk, len(cases))
			b := &pgx.Batch{}
			for _, c := range cases[start:end] {
				b.Queue(upsertCaseSQL, c.values()...)
			}
			if err := conn.SendBatch(ctx, b).Close(); err != nil {
				return db.Wrap(fmt.Sprintf("upsert cases %d-%d", start, end-1), err)
			}
		}
		return nil
	})
}
