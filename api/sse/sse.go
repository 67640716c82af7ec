package sse

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/my2dworld/cache"
	"github.com/kasuganosora/my2dworld/game/broadcast"
	"github.com/kasuganosora/my2dworld/game/session"
	"go.uber.org/zap"
)

const defaultStatsInterval = 30 * time.Second

// Handler streams world announcements and live occupancy to operator
// dashboards over server-sent events.
type Handler struct {
	pubsub        cache.PubSub
	reg           *session.Registry
	statsInterval time.Duration
	logger        *zap.Logger
}

// NewHandler creates a new SSE Handler. statsInterval <= 0 uses 30s.
func NewHandler(pubsub cache.PubSub, reg *session.Registry, statsInterval time.Duration, logger *zap.Logger) *Handler {
	if statsInterval <= 0 {
		statsInterval = defaultStatsInterval
	}
	return &Handler{pubsub: pubsub, reg: reg, statsInterval: statsInterval, logger: logger}
}

type statsEvent struct {
	Online    int           `json:"online"`
	Occupancy map[int64]int `json:"shard_occupancy"`
}

func (h *Handler) stats() statsEvent {
	return statsEvent{Online: h.reg.Count(), Occupancy: h.reg.ShardOccupancy()}
}

// ServeSSE handles GET /api/admin/events. Routes should be protected by
// middleware.AdminAuth.
func (h *Handler) ServeSSE(c *gin.Context) {
	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, broadcast.AnnounceChannel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscribe failed"})
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("stats", h.stats())
	c.Writer.Flush()

	ticker := time.NewTicker(h.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			c.SSEvent("announce", msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			// Doubles as keepalive for proxies.
			c.SSEvent("stats", h.stats())
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
