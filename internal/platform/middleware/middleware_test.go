package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/vitallab/vitallab/internal/platform/metrics"
	"github.com/vitallab/vitallab/internal/platform/vitaldb"
)

func TestRequestID_GeneratesNew(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		rid := c.Get("request_id").(string)
		if rid == "" {
			t.Error("expected request_id to be generated")
		}
		return c.String(http.StatusOK, "ok")
	}

	h := RequestID()(handler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		if rid := c.Get("request_id").(string); rid != "my-custom-id" {
			t.Errorf("expected my-custom-id, got %s", rid)
		}
		return c.String(http.StatusOK, "ok")
	}

	h := RequestID()(handler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected my-custom-id in response header, got %s", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_ReplacesOversized(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestID()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("expected a generated uuid, got %q", got)
	}
}

func logLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	return line
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases/7?x=1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/cases/:case_id")
	c.Set("request_id", "rid-1")

	h := Logger(logger)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := logLine(t, &buf)
	want := map[string]interface{}{
		"level":      "info",
		"request_id": "rid-1",
		"route":      "/api/v1/cases/:case_id",
		"path":       "/api/v1/cases/7",
		"query":      "x=1",
		"status":     float64(200),
		"bytes_out":  float64(2),
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("%s: got %v, want %v", k, line[k], v)
		}
	}
}

func TestLogger_Levels(t *testing.T) {
	for _, tc := range []struct {
		path  string
		err   error
		level string
	}{
		{"/metrics", nil, "debug"},
		{"/health", nil, "debug"},
		{"/health/db", echo.NewHTTPError(http.StatusServiceUnavailable), "error"},
		{"/api/v1/cases/:case_id", echo.NewHTTPError(http.StatusNotFound, "Case not found"), "warn"},
		{"/api/v1/cases", &vitaldb.RemoteUnavailableError{Resource: "cases", Err: errors.New("open")}, "error"},
	} {
		var buf bytes.Buffer
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetPath(tc.path)

		err := tc.err
		_ = Logger(zerolog.New(&buf))(func(c echo.Context) error {
			if err != nil {
				return err
			}
			return c.NoContent(http.StatusOK)
		})(c)

		if got := logLine(t, &buf)["level"]; got != tc.level {
			t.Errorf("%s: level %v, want %s", tc.path, got, tc.level)
		}
	}
}

func TestLogger_PassesErrorThrough(t *testing.T) {
	logger := zerolog.New(os.Stderr).With().Logger()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/cases/1", nil), httptest.NewRecorder())

	want := echo.NewHTTPError(http.StatusNotFound, "Case not found")
	h := Logger(logger)(func(c echo.Context) error { return want })
	if err := h(c); err != want {
		t.Fatalf("expected handler error to pass through, got %v", err)
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	logger := zerolog.New(os.Stderr).With().Logger()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/case/3/data", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/case/:case_id/data")

	counter := metrics.APIPanics.WithLabelValues("/api/v1/case/:case_id/data")
	before := testutil.ToFloat64(counter)

	h := Recovery(logger)(func(c echo.Context) error {
		panic("index out of range")
	})
	err := h(c)

	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
	if httpErr.Internal == nil || !strings.Contains(httpErr.Internal.Error(), "index out of range") {
		t.Errorf("expected the panic value as internal error, got %v", httpErr.Internal)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("expected one panic counted, got %v", got)
	}

	code, body := runErrorHandler(t, err)
	if code != http.StatusInternalServerError || body["detail"] != "internal server error" {
		t.Errorf("panic must render generically, got %d %v", code, body)
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	logger := zerolog.New(os.Stderr).With().Logger()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/ok", nil), httptest.NewRecorder())

	h := Recovery(logger)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func runErrorHandler(t *testing.T, err error) (int, map[string]string) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil), rec)

	ErrorHandler(zerolog.Nop())(err, c)

	var body map[string]string
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("invalid error body %q: %v", rec.Body.String(), jerr)
	}
	return rec.Code, body
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		detail string
	}{
		{"http error", echo.NewHTTPError(http.StatusNotFound, "Case not found"), http.StatusNotFound, "Case not found"},
		{"http error without message", &echo.HTTPError{Code: http.StatusBadRequest}, http.StatusBadRequest, "Bad Request"},
		{"remote unavailable", &vitaldb.RemoteUnavailableError{Resource: "cases", Err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, "remote data source unavailable"},
		{"remote fetch", &vitaldb.RemoteFetchError{Resource: "cases", StatusCode: 500, Body: "boom"}, http.StatusBadGateway, "remote data source error"},
		{"unknown error hides detail", errors.New("pq: password authentication failed"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := runErrorHandler(t, tt.err)
			if code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, code)
			}
			if body["detail"] != tt.detail {
				t.Errorf("expected detail %q, got %q", tt.detail, body["detail"])
			}
		})
	}
}

func TestErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.String(http.StatusOK, "partial")

	ErrorHandler(zerolog.Nop())(errors.New("late failure"), c)

	if rec.Body.String() != "partial" {
		t.Errorf("expected body untouched, got %q", rec.Body.String())
	}
}

func TestMetrics_PassesThrough(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/cases/7", nil), rec)
	c.SetPath("/api/v1/cases/:case_id")

	h := Metrics()(func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound, "Case not found") })
	err := h(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 to pass through, got %v", err)
	}
}
