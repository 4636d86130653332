package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestQuery_NoFilters(t *testing.T) {
	q := NewQuery("cases", "caseid, department")
	q.OrderBy("caseid")

	if got := q.CountSQL(); got != "SELECT COUNT(*) FROM cases WHERE 1=1" {
		t.Errorf("unexpected count SQL: %s", got)
	}
	want := "SELECT caseid, department FROM cases WHERE 1=1 ORDER BY caseid LIMIT $1 OFFSET $2"
	if got := q.DataSQL(); got != want {
		t.Errorf("unexpected data SQL:\n got %s\nwant %s", got, want)
	}
	args := q.DataArgs(100, 0)
	if len(args) != 2 || args[0] != 100 || args[1] != 0 {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestQuery_Filters(t *testing.T) {
	q := NewQuery("cases", "caseid")
	q.Eq("department", "General surgery")
	q.Cmp("age", ">=", int64(40))
	q.Cmp("age", "<=", int64(60))
	q.OrderBy("caseid")

	want := "SELECT caseid FROM cases WHERE 1=1 AND department = $1 AND age >= $2 AND age <= $3 ORDER BY caseid LIMIT $4 OFFSET $5"
	if got := q.DataSQL(); got != want {
		t.Errorf("unexpected data SQL:\n got %s\nwant %s", got, want)
	}
	if len(q.Args()) != 3 {
		t.Errorf("expected 3 filter args, got %d", len(q.Args()))
	}
	args := q.DataArgs(5, 10)
	if args[3] != 5 || args[4] != 10 {
		t.Errorf("unexpected limit/offset args: %v", args[3:])
	}
}

func TestQuery_RejectsUnknownOperator(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unsupported operator")
		}
	}()
	NewQuery("cases", "caseid").Cmp("age", "; DROP", 1)
}

func TestWithTx_NoConn(t *testing.T) {
	_, tx, err := WithTx(context.Background())
	if !errors.Is(err, ErrNoConn) {
		t.Fatalf("expected ErrNoConn, got %v", err)
	}
	if tx != nil {
		t.Error("expected nil tx")
	}
	if err.Error() != "no database connection in context" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestFromContext_Empty(t *testing.T) {
	if ConnFromContext(context.Background()) != nil {
		t.Error("expected nil conn")
	}
	if TxFromContext(context.Background()) != nil {
		t.Error("expected nil tx")
	}
}

func TestPersistenceError(t *testing.T) {
	base := errors.New("connection reset")
	err := Wrap("insert track_data", base)

	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %T", err)
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to unwrap to base")
	}
	if Wrap("outer", err) != err {
		t.Error("expected Wrap to keep an existing PersistenceError")
	}
	if Wrap("noop", nil) != nil {
		t.Error("expected nil for nil error")
	}
	if !IsNotFound(Wrap("get", pgx.ErrNoRows)) {
		t.Error("expected wrapped ErrNoRows to be not found")
	}
}
