package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const healthTimeout = 5 * time.Second

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// HealthHandler reports database reachability and pool statistics. When
// migrator is set it also reports how many migrations schema still lacks;
// a lagging schema is "degraded" but still answers 200.
func HealthHandler(pool *pgxpool.Pool, migrator *Migrator, schema string) echo.HandlerFunc {
	var pending func(context.Context) (int, error)
	if migrator != nil {
		pending = func(ctx context.Context) (int, error) {
			return migrator.PendingCount(ctx, schema)
		}
	}
	return healthHandler(pool.Ping, func() *PoolStats { return GetPoolStats(pool) }, pending)
}

func healthHandler(ping func(context.Context) error, stats func() *PoolStats, pending func(context.Context) (int, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		err := ping(ctx)
		s := stats()
		if err != nil {
			s.Healthy = false
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  "database ping failed",
				"pool":   s,
			})
		}

		body := map[string]interface{}{
			"status": "healthy",
			"pool":   s,
		}
		if pending != nil {
			n, err := pending(ctx)
			switch {
			case err != nil:
				body["pending_migrations"] = nil
			case n > 0:
				body["pending_migrations"] = n
				body["status"] = "degraded"
			default:
				body["pending_migrations"] = 0
			}
		}
		return c.JSON(http.StatusOK, body)
	}
}
