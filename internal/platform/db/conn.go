package db

import (
	"context"
	"net/http"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	DBConnKey contextKey = "db_conn"
	TxKey     contextKey = "db_tx"
)

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidSchema reports whether name can be used as an unquoted schema name.
func ValidSchema(name string) bool {
	return schemaPattern.MatchString(name)
}

// ConnMiddleware acquires one pooled connection per request and releases it
// when the handler returns, on every exit path. Repositories pick the
// connection up via ConnFromContext.
func ConnMiddleware(pool *pgxpool.Pool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			c.SetRequest(c.Request().WithContext(ContextWithConn(ctx, conn)))
			return next(c)
		}
	}
}

// ConnFromContext retrieves the request-scoped database connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// ContextWithConn stores conn in ctx.
func ContextWithConn(ctx context.Context, conn *pgxpool.Conn) context.Context {
	return context.WithValue(ctx, DBConnKey, conn)
}

// WithoutConn hides the request connection in ctx. Queries that run in
// parallel use it so each draws its own pooled connection.
func WithoutConn(ctx context.Context) context.Context {
	if ConnFromContext(ctx) == nil {
		return ctx
	}
	return context.WithValue(ctx, DBConnKey, (*pgxpool.Conn)(nil))
}
