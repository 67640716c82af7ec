package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/my2dworld/cache"
	"github.com/kasuganosora/my2dworld/game/broadcast"
	"github.com/kasuganosora/my2dworld/game/session"
	"github.com/kasuganosora/my2dworld/scheduler"
	"go.uber.org/zap"
)

// DefinitionCache drops cached world definitions after an operator edits them.
type DefinitionCache interface {
	Invalidate(ctx context.Context, kind string, ids ...int64) error
}

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by middleware.AdminAuth.
type AdminHandler struct {
	reg    *session.Registry
	sched  *scheduler.Scheduler
	cache  cache.Cache
	pubsub cache.PubSub
	defs   DefinitionCache
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	reg *session.Registry,
	sched *scheduler.Scheduler,
	c cache.Cache,
	ps cache.PubSub,
	defs DefinitionCache,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{reg: reg, sched: sched, cache: c, pubsub: ps, defs: defs, logger: logger}
}

// Metrics returns server health metrics. shard_occupancy is this node's live
// count; published_occupancy is the last registry_stats snapshot in the cache.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	published, err := h.cache.HGetAll(ctx, scheduler.ShardOccupancyKey)
	if err != nil {
		h.logger.Warn("metrics: read occupancy", zap.Error(err))
		published = map[string]string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"online_sessions":     h.reg.Count(),
		"authenticated":       h.reg.CountWhere(broadcast.Authenticated),
		"shard_occupancy":     h.reg.ShardOccupancy(),
		"published_occupancy": published,
		"scheduler_tasks":     h.sched.ListTickers(),
	})
}

type sessionInfo struct {
	SessionID  uint64  `json:"session_id"`
	UserID     *int64  `json:"user_id"`
	Username   string  `json:"username,omitempty"`
	ShardID    *int64  `json:"shard_id"`
	MapID      *int64  `json:"map_id"`
	GameID     *int64  `json:"game_id"`
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	RemoteAddr string  `json:"remote_addr"`
}

// ListSessions returns a snapshot of all live sessions.
// GET /api/admin/sessions
func (h *AdminHandler) ListSessions(c *gin.Context) {
	sessions := h.reg.All()
	result := make([]sessionInfo, 0, len(sessions))
	for _, s := range sessions {
		st := s.State()
		result = append(result, sessionInfo{
			SessionID:  s.ID,
			UserID:     st.UserID,
			Username:   st.Username,
			ShardID:    st.ShardID,
			MapID:      st.MapID,
			GameID:     st.GameID,
			X:          st.X,
			Y:          st.Y,
			RemoteAddr: s.RemoteAddr,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": result, "count": len(result)})
}

// KickUser forcibly disconnects a user. The connection's read pump runs the
// usual quit-server cleanup.
// POST /api/admin/kick/:user_id
func (h *AdminHandler) KickUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	s := h.reg.Get(userID)
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not online"})
		return
	}
	s.Close()
	h.logger.Info("admin kicked user", zap.Int64("user_id", userID), zap.Uint64("session_id", s.ID))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type announceRequest struct {
	Message string `json:"message" binding:"required,max=500"`
}

// Announce publishes a server announcement to every node.
// POST /api/admin/announce
func (h *AdminHandler) Announce(c *gin.Context) {
	var req announceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := broadcast.PublishAnnouncement(ctx, h.pubsub, req.Message); err != nil {
		h.logger.Error("announce failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "publish failed"})
		return
	}
	h.logger.Info("announcement published", zap.String("message", req.Message))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type invalidateRequest struct {
	Kind string  `json:"kind" binding:"required,oneof=shard map game"`
	IDs  []int64 `json:"ids" binding:"required,min=1,max=100"`
}

// InvalidateCache drops cached shard, map or game definitions so the next
// lookup reads the database, e.g. after a shard's max_players was changed.
// POST /api/admin/cache/invalidate
func (h *AdminHandler) InvalidateCache(c *gin.Context) {
	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.defs.Invalidate(ctx, req.Kind, req.IDs...); err != nil {
		h.logger.Error("cache invalidation failed", zap.String("kind", req.Kind), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalidation failed"})
		return
	}
	h.logger.Info("cache invalidated", zap.String("kind", req.Kind), zap.Int64s("ids", req.IDs))
	c.JSON(http.StatusOK, gin.H{"ok": true, "invalidated": len(req.IDs)})
}
