package protocol

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kasuganosora/my2dworld/game/packet"
	"github.com/kasuganosora/my2dworld/game/session"
)

// ChatMessage relays a speech bubble to the caller's room.
func (h *Handler) ChatMessage(_ context.Context, s *session.Session, req packet.ChatMessageReq) error {
	st := s.State()
	if !st.InShard() {
		h.skip(s, packet.TypeChatMessage, "not in shard")
		return nil
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil
	}
	if n := utf8.RuneCountInString(msg); n > maxChatLen {
		return fmt.Errorf("chat message too long: %d runes", n)
	}
	h.toRoom(s, st, packet.TypePlayerSpeech, packet.PlayerSpeech{
		UserID:   *st.UserID,
		Username: st.Username,
		Message:  msg,
	})
	return nil
}

// PlayerMove records the reported position and relays it to the room.
func (h *Handler) PlayerMove(_ context.Context, s *session.Session, req packet.PlayerMoveReq) error {
	st := s.State()
	if !st.InShard() {
		h.skip(s, packet.TypePlayerMove, "not in shard")
		return nil
	}
	s.SetPosition(req.X, req.Y)
	h.toRoom(s, st, packet.TypeUpdatePosition, packet.UpdatePosition{
		UserID: *st.UserID,
		X:      req.X,
		Y:      req.Y,
	})
	return nil
}
