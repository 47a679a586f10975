package handlers

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthHandlers reports process and database liveness
type HealthHandlers struct {
	pool *pgxpool.Pool
}

func NewHealthHandlers(pool *pgxpool.Pool) *HealthHandlers {
	return &HealthHandlers{pool: pool}
}

// Health handles GET /health
func (h *HealthHandlers) Health(c echo.Context) error {
	ctx := c.Request().Context()

	dbStatus := "ok"
	if err := h.pool.Ping(ctx); err != nil {
		dbStatus = "unreachable"
	}

	status := http.StatusOK
	overall := "ok"
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	return c.JSON(status, map[string]interface{}{
		"status":    overall,
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /health/ready; used as the readiness probe
func (h *HealthHandlers) Ready(c echo.Context) error {
	if err := h.pool.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"ready": false,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ready": true,
	})
}

// Detailed handles GET /health/detailed with connection pool statistics
func (h *HealthHandlers) Detailed(c echo.Context) error {
	ctx := c.Request().Context()

	dbStatus := "ok"
	if err := h.pool.Ping(ctx); err != nil {
		dbStatus = "unreachable"
	}

	stats := h.pool.Stat()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"database": dbStatus,
		"pool": map[string]interface{}{
			"total_conns":    stats.TotalConns(),
			"idle_conns":     stats.IdleConns(),
			"acquired_conns": stats.AcquiredConns(),
			"max_conns":      stats.MaxConns(),
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
