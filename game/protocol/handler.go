// Package protocol implements the per-connection protocol state machine:
// Anonymous, Authenticated, InShard, InMapRoom and InGame.
package protocol

import (
	"time"

	"github.com/kasuganosora/my2dworld/audit"
	"github.com/kasuganosora/my2dworld/config"
	"github.com/kasuganosora/my2dworld/game/broadcast"
	"github.com/kasuganosora/my2dworld/game/packet"
	"github.com/kasuganosora/my2dworld/game/session"
	"github.com/kasuganosora/my2dworld/store"
	"go.uber.org/zap"
)

const maxChatLen = 200

// Auditor receives state-changing actions. *audit.Service implements it.
type Auditor interface {
	Log(entry audit.Entry)
}

// Handler has one method per inbound message. Methods for one session are
// called sequentially by its read pump; different sessions run concurrently.
// Silent precondition failures return nil.
type Handler struct {
	store  store.Gateway
	reg    *session.Registry
	bc     *broadcast.Broadcaster
	cfg    config.GameConfig
	audit  Auditor
	logger *zap.Logger
}

// New creates a Handler. auditor may be nil.
func New(gw store.Gateway, reg *session.Registry, bc *broadcast.Broadcaster, cfg config.GameConfig, auditor Auditor, logger *zap.Logger) *Handler {
	if cfg.InventoryPageSize <= 0 {
		cfg.InventoryPageSize = 20
	}
	if cfg.ShopPageSize <= 0 {
		cfg.ShopPageSize = 5
	}
	if cfg.DefaultLocationID <= 0 {
		cfg.DefaultLocationID = 1
	}
	return &Handler{store: gw, reg: reg, bc: bc, cfg: cfg, audit: auditor, logger: logger}
}

// skip logs a silently ignored message.
func (h *Handler) skip(s *session.Session, msgType, reason string) {
	h.logger.Debug("message ignored",
		zap.Uint64("session_id", s.ID),
		zap.String("type", msgType),
		zap.String("reason", reason))
}

// toRoom delivers to the caller's room, or to the caller alone when room
// fan-out is disabled or the caller has no map yet.
func (h *Handler) toRoom(s *session.Session, st session.State, typ string, payload interface{}) {
	if h.cfg.RoomChatter && st.MapID != nil && st.GameID == nil {
		h.bc.SendToFiltered(broadcast.Room(*st.ShardID, *st.MapID), typ, payload)
		return
	}
	h.bc.SendTo(s, typ, payload)
}

// toOthersInRoom notifies the rest of the caller's room. It does nothing for
// a caller without a map or inside a game, since nobody sees them.
func (h *Handler) toOthersInRoom(st session.State, typ string, payload interface{}) {
	if st.ShardID == nil || st.MapID == nil || st.GameID != nil {
		return
	}
	h.bc.SendToFiltered(broadcast.Except(broadcast.Room(*st.ShardID, *st.MapID), st.UserIDValue()), typ, payload)
}

func (h *Handler) record(s *session.Session, st session.State, action string, start time.Time, req interface{}, err error) {
	if h.audit == nil {
		return
	}
	e := audit.Entry{
		TraceID:    s.TraceID,
		UserID:     st.UserID,
		Username:   st.Username,
		Action:     action,
		Request:    req,
		IP:         s.RemoteAddr,
		ShardID:    st.ShardID,
		MapID:      st.MapID,
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		e.Error = err.Error()
	}
	h.audit.Log(e)
}

func roomPlayer(st session.State) packet.RoomPlayer {
	return packet.RoomPlayer{UserID: st.UserIDValue(), Username: st.Username, X: st.X, Y: st.Y}
}
