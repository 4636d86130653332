package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CacheConfig controls the ETag middleware.
type CacheConfig struct {
	// MaxAge is the Cache-Control max-age in seconds. Zero sends no-cache,
	// which still lets clients revalidate with If-None-Match.
	MaxAge int
	// Private marks responses as private to the requesting client.
	Private bool
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{MaxAge: 60, Private: true}
}

// bufferedWriter holds the response so the ETag can be computed from the
// full body before anything reaches the client.
type bufferedWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *bufferedWriter) Write(b []byte) (int, error) { return w.buf.Write(b) }

func (w *bufferedWriter) WriteHeader(code int) { w.status = code }

func (w *bufferedWriter) Flush() {}

// ETag adds a weak content hash ETag and Cache-Control to successful GET
// responses and answers matching If-None-Match requests with 304.
func ETag(cfg CacheConfig) echo.MiddlewareFunc {
	cacheControl := buildCacheControl(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}

			res := c.Response()
			orig := res.Writer
			buf := &bufferedWriter{ResponseWriter: orig, status: http.StatusOK}
			res.Writer = buf

			err := next(c)
			res.Writer = orig
			if err != nil {
				// Nothing was sent yet; let the error handler write the response.
				res.Committed = false
				return err
			}

			if buf.status != http.StatusOK {
				return flush(orig, buf)
			}

			etag := computeETag(buf.buf.Bytes())
			res.Header().Set("ETag", etag)
			res.Header().Set("Cache-Control", cacheControl)

			if inm := req.Header.Get("If-None-Match"); inm != "" && etagMatch(inm, etag) {
				res.Header().Del("Content-Type")
				res.Header().Del("Content-Length")
				res.Status = http.StatusNotModified
				orig.WriteHeader(http.StatusNotModified)
				return nil
			}
			return flush(orig, buf)
		}
	}
}

func flush(w http.ResponseWriter, buf *bufferedWriter) error {
	w.WriteHeader(buf.status)
	if buf.buf.Len() == 0 {
		return nil
	}
	_, err := w.Write(buf.buf.Bytes())
	return err
}

func computeETag(body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf(`W/"%s"`, hex.EncodeToString(sum[:16]))
}

func buildCacheControl(cfg CacheConfig) string {
	scope := "public"
	if cfg.Private {
		scope = "private"
	}
	if cfg.MaxAge <= 0 {
		return scope + ", no-cache"
	}
	return fmt.Sprintf("%s, max-age=%d", scope, cfg.MaxAge)
}

// etagMatch applies the weak comparison of If-None-Match, including lists
// and the "*" wildcard.
func etagMatch(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "*" {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == want {
			return true
		}
	}
	return false
}
