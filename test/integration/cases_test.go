package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/vitallab/vitallab/internal/domain/cases"
)

func TestCaseRepoPG_UpsertIsIdempotent(t *testing.T) {
	pool := migratedPool(t, "cases")
	repo := cases.NewCaseRepoPG(pool)
	ctx := context.Background()

	batch := []*cases.Case{
		{CaseID: 1, SubjectID: 10, Age: 40, Department: "General surgery", ASA: 2},
		{CaseID: 2, SubjectID: 20, Age: 60, Department: "Thoracic surgery", EmOp: 1},
	}
	for i := 0; i < 2; i++ {
		if err := repo.Upsert(ctx, batch); err != nil {
			t.Fatalf("upsert pass %d: %v", i, err)
		}
	}
	if n := countRows(t, pool, `SELECT COUNT(*) FROM cases`); n != 2 {
		t.Fatalf("expected 2 cases after repeated upserts, got %d", n)
	}

	updated := []*cases.Case{{CaseID: 1, SubjectID: 11, Age: 41, Department: "Urology"}}
	if err := repo.Upsert(ctx, updated); err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	got, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("get case: %v", err)
	}
	if got.SubjectID != 11 || got.Age != 41 || got.Department != "Urology" {
		t.Errorf("expected the second upsert to overwrite, got %+v", got)
	}
	if got.ASA != 0 {
		t.Errorf("expected every column replaced, asa = %d", got.ASA)
	}

	if _, err := repo.GetByID(ctx, 99); !errors.Is(err, cases.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCaseRepoPG_SummaryIgnoresUnknownAges(t *testing.T) {
	pool := migratedPool(t, "summary")
	repo := cases.NewCaseRepoPG(pool)
	ctx := context.Background()

	err := repo.Upsert(ctx, []*cases.Case{
		{CaseID: 1, SubjectID: 1, Age: 40, Department: "General surgery", EmOp: 1},
		{CaseID: 2, SubjectID: 2, Age: 60, Department: "General surgery", DeathInHosp: 1},
		{CaseID: 3, SubjectID: 3, Age: -1, Department: "Urology"},
		{CaseID: 4, SubjectID: 4, Age: 0, Department: "Urology"},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	s, err := repo.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.TotalCases != 4 {
		t.Errorf("total_cases = %d, want 4", s.TotalCases)
	}
	if s.AvgAge != 50 {
		t.Errorf("avg_age = %v, want 50 over positive ages only", s.AvgAge)
	}
	if s.EmergencyRate != 25 || s.MortalityRate != 25 {
		t.Errorf("emergency/mortality = %v/%v, want 25/25", s.EmergencyRate, s.MortalityRate)
	}
	if s.Departments["General surgery"] != 2 || s.Departments["Urology"] != 2 {
		t.Errorf("departments = %v", s.Departments)
	}
}

func TestCaseRepoPG_SummaryEmptyTable(t *testing.T) {
	pool := migratedPool(t, "empty")
	s, err := cases.NewCaseRepoPG(pool).Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.TotalCases != 0 || s.AvgAge != 0 || len(s.Departments) != 0 {
		t.Errorf("expected a zero summary, got %+v", s)
	}
}

func TestCaseRepoPG_ListFilters(t *testing.T) {
	pool := migratedPool(t, "list")
	repo := cases.NewCaseRepoPG(pool)
	ctx := context.Background()

	err := repo.Upsert(ctx, []*cases.Case{
		{CaseID: 3, SubjectID: 3, Age: 70, Department: "Urology"},
		{CaseID: 1, SubjectID: 1, Age: 30, Department: "Urology"},
		{CaseID: 2, SubjectID: 2, Age: 50, Department: "General surgery"},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	minAge := 40
	items, err := repo.List(ctx, cases.Filter{Department: "Urology", AgeMin: &minAge}, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].CaseID != 3 {
		t.Errorf("expected only case 3, got %d items", len(items))
	}
}
