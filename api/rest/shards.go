package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/my2dworld/game/session"
	"github.com/kasuganosora/my2dworld/model"
	"go.uber.org/zap"
)

// ShardLister lists the configured shards.
type ShardLister interface {
	Shards(ctx context.Context) ([]model.Shard, error)
}

// ShardHandler serves the shard selection list.
type ShardHandler struct {
	shards ShardLister
	reg    *session.Registry
	logger *zap.Logger
}

// NewShardHandler creates a ShardHandler.
func NewShardHandler(shards ShardLister, reg *session.Registry, logger *zap.Logger) *ShardHandler {
	return &ShardHandler{shards: shards, reg: reg, logger: logger}
}

type shardInfo struct {
	model.Shard
	Online int  `json:"online"`
	Full   bool `json:"full"`
}

// List handles GET /api/shards.
func (h *ShardHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	shards, err := h.shards.Shards(ctx)
	if err != nil {
		h.logger.Error("list shards", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	occ := h.reg.ShardOccupancy()
	out := make([]shardInfo, 0, len(shards))
	for _, sh := range shards {
		n := occ[sh.ID]
		out = append(out, shardInfo{Shard: sh, Online: n, Full: n >= sh.MaxPlayers})
	}
	c.JSON(http.StatusOK, gin.H{"shards": out})
}
