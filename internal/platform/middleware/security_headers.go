package middleware

import (
	"github.com/labstack/echo/v4"
)

const (
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// The Swagger UI page loads its bundle from unpkg and fetches the
	// document from this origin.
	docsCSP = "default-src 'none'; script-src 'self' 'unsafe-inline' https://unpkg.com; " +
		"style-src 'self' 'unsafe-inline' https://unpkg.com; img-src 'self' data: https://unpkg.com; " +
		"connect-src 'self'; frame-ancestors 'none'"
)

// SecurityConfig configures SecurityHeaders.
type SecurityConfig struct {
	// HSTS sends Strict-Transport-Security. Off in development so plain
	// HTTP on localhost keeps working.
	HSTS bool
	// DocsPaths are HTML pages that get a CSP allowing the API docs UI.
	DocsPaths []string
}

// SecurityHeaders sets response headers for a JSON API. Only DocsPaths may
// load scripts.
func SecurityHeaders(cfg SecurityConfig) echo.MiddlewareFunc {
	docs := make(map[string]bool, len(cfg.DocsPaths))
	for _, p := range cfg.DocsPaths {
		docs[p] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			if docs[c.Request().URL.Path] {
				h.Set("Content-Security-Policy", docsCSP)
			} else {
				h.Set("Content-Security-Policy", apiCSP)
			}
			if cfg.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			return next(c)
		}
	}
}
