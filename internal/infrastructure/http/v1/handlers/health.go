package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"poscore/internal/core/business"
)

// HealthHandler provides health check endpoints for the multi-business setup.
type HealthHandler struct {
	metaPool *pgxpool.Pool
	manager  *business.Manager
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(metaPool *pgxpool.Pool, manager *business.Manager) *HealthHandler {
	return &HealthHandler{
		metaPool: metaPool,
		manager:  manager,
	}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe - checks meta-database connection.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.metaPool.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"meta_database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"meta_database": "healthy",
		},
	})
}

// Info returns application information with per-business pool stats.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	metaStat := h.metaPool.Stat()
	poolStats := h.manager.Stats()

	c.JSON(http.StatusOK, gin.H{
		"app":     "poscore",
		"version": "0.1.0",
		"meta_database": map[string]any{
			"total_conns":    metaStat.TotalConns(),
			"acquired_conns": metaStat.AcquiredConns(),
			"idle_conns":     metaStat.IdleConns(),
		},
		"businesses": map[string]any{
			"active_pools":   poolStats.TotalPools,
			"total_conns":    poolStats.TotalConns,
			"idle_conns":     poolStats.IdleConns,
			"acquired_conns": poolStats.AcquiredConns,
		},
	})
}

// BusinessStats returns detailed statistics for all business pools.
// GET /health/businesses
func (h *HealthHandler) BusinessStats(c *gin.Context) {
	stats := h.manager.Stats()

	details := make([]gin.H, 0, len(stats.Businesses))
	for _, b := range stats.Businesses {
		details = append(details, gin.H{
			"business_id":    b.BusinessID,
			"db_name":        b.DBName,
			"total_conns":    b.TotalConns,
			"idle_conns":     b.IdleConns,
			"acquired_conns": b.AcquiredConns,
			"active_refs":    b.ActiveRefs,
			"last_used":      b.LastUsed,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_pools": stats.TotalPools,
		"total_conns": stats.TotalConns,
		"businesses":  details,
	})
}
