package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/my2dworld/cache"
	"github.com/kasuganosora/my2dworld/game/session"
	"gorm.io/gorm"
)

// HealthHandler reports liveness and database and cache reachability.
type HealthHandler struct {
	db    *gorm.DB
	cache cache.Cache
	reg   *session.Registry
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(db *gorm.DB, c cache.Cache, reg *session.Registry) *HealthHandler {
	return &HealthHandler{db: db, cache: c, reg: reg}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
		return
	}
	if err := h.cache.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "cache unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.reg.Count()})
}
