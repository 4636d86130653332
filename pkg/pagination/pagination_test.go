package pagination

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithQuery(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestFromContext_Defaults(t *testing.T) {
	p, err := FromContext(contextWithQuery(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Skip != 0 {
		t.Errorf("expected default skip 0, got %d", p.Skip)
	}
}

func TestFromContext_Values(t *testing.T) {
	p, err := FromContext(contextWithQuery("skip=20&limit=5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Skip != 20 || p.Limit != 5 {
		t.Errorf("expected skip=20 limit=5, got %+v", p)
	}
}

func TestFromContext_Rejects(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"limit=0", "limit: must be greater than or equal to 1"},
		{"limit=1001", "limit: must be less than or equal to 1000"},
		{"skip=-1", "skip: must be greater than or equal to 0"},
		{"limit=abc", "limit: invalid value"},
	}
	for _, tt := range tests {
		_, err := FromContext(contextWithQuery(tt.query))
		he, ok := err.(*echo.HTTPError)
		if !ok {
			t.Fatalf("%s: expected echo.HTTPError, got %v", tt.query, err)
		}
		if he.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tt.query, he.Code)
		}
		if msg, _ := he.Message.(string); !strings.Contains(msg, tt.want) {
			t.Errorf("%s: expected message containing %q, got %q", tt.query, tt.want, msg)
		}
	}
}

func TestFromContextWithDefault(t *testing.T) {
	p, err := FromContextWithDefault(contextWithQuery(""), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != 10 {
		t.Errorf("expected limit 10, got %d", p.Limit)
	}
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	if got := Window(items, Params{Skip: 1, Limit: 2}); len(got) != 2 || got[0] != 2 {
		t.Errorf("unexpected page %v", got)
	}
	if got := Window(items, Params{Skip: 4, Limit: 10}); len(got) != 1 || got[0] != 5 {
		t.Errorf("unexpected tail page %v", got)
	}
	if got := Window(items, Params{Skip: 9, Limit: 10}); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil page, got %v", got)
	}
}

func TestValidate_FieldNames(t *testing.T) {
	type filter struct {
		AgeMin *int `validate:"omitempty,gte=0"`
	}
	v := -3
	err := Validate(filter{AgeMin: &v})
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	if msg := he.Message.(string); !strings.HasPrefix(msg, "age_min:") {
		t.Errorf("expected snake_case field name, got %q", msg)
	}
}

func TestOptionalInt(t *testing.T) {
	v, err := OptionalInt(contextWithQuery("age_min=40"), "age_min")
	if err != nil || v == nil || *v != 40 {
		t.Fatalf("expected 40, got %v (%v)", v, err)
	}
	v, err = OptionalInt(contextWithQuery(""), "age_min")
	if err != nil || v != nil {
		t.Fatalf("expected nil for absent parameter, got %v (%v)", v, err)
	}
	if _, err := OptionalInt(contextWithQuery("age_min=old"), "age_min"); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
}

func TestOptionalFloat(t *testing.T) {
	v, err := OptionalFloat(contextWithQuery("start_time=12.5"), "start_time")
	if err != nil || v == nil || *v != 12.5 {
		t.Fatalf("expected 12.5, got %v (%v)", v, err)
	}
	for _, raw := range []string{"NaN", "Inf", "-Inf", "x"} {
		if _, err := OptionalFloat(contextWithQuery("start_time="+raw), "start_time"); err == nil {
			t.Errorf("expected %s to be rejected", raw)
		}
	}
}
