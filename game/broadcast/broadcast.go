// Package broadcast delivers outbound packets to one session or to a filtered
// subset of the registry.
package broadcast

import (
	"context"

	"github.com/kasuganosora/my2dworld/cache"
	"github.com/kasuganosora/my2dworld/game/packet"
	"github.com/kasuganosora/my2dworld/game/session"
	"go.uber.org/zap"
)

// AnnounceChannel is the pub/sub channel carrying world announcements.
const AnnounceChannel = "world:announce"

// Broadcaster fans packets out over the registry. Delivery is best-effort
// per recipient: a full or closed recipient is skipped and never reported as
// a failure to the caller.
type Broadcaster struct {
	reg    *session.Registry
	logger *zap.Logger
}

// New creates a Broadcaster over reg.
func New(reg *session.Registry, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{reg: reg, logger: logger}
}

// Room selects the sessions in shardID/mapID that are not inside a game.
func Room(shardID, mapID int64) session.Predicate {
	return func(st session.State) bool { return st.InRoom(shardID, mapID) }
}

// Authenticated selects every logged-in session.
func Authenticated(st session.State) bool { return st.Authenticated }

// Except wraps pred to exclude the session logged in as userID.
func Except(pred session.Predicate, userID int64) session.Predicate {
	return func(st session.State) bool {
		return pred(st) && st.UserIDValue() != userID
	}
}

// SendTo delivers a packet to s. It reports whether the packet was queued.
func (b *Broadcaster) SendTo(s *session.Session, typ string, payload interface{}) bool {
	data, err := packet.Encode(typ, payload)
	if err != nil {
		b.logger.Error("encode packet", zap.String("type", typ), zap.Error(err))
		return false
	}
	if !s.SendRaw(data) {
		b.logger.Debug("packet skipped for closed or slow session",
			zap.Uint64("session_id", s.ID),
			zap.String("type", typ))
		return false
	}
	return true
}

// SendToFiltered encodes once and delivers to every session matching pred.
// It returns the number of sessions the packet was queued for.
func (b *Broadcaster) SendToFiltered(pred session.Predicate, typ string, payload interface{}) int {
	data, err := packet.Encode(typ, payload)
	if err != nil {
		b.logger.Error("encode packet", zap.String("type", typ), zap.Error(err))
		return 0
	}
	sent := 0
	for _, s := range b.reg.Find(pred) {
		if s.SendRaw(data) {
			sent++
			continue
		}
		b.logger.Debug("broadcast skipped closed or slow session",
			zap.Uint64("session_id", s.ID),
			zap.String("type", typ))
	}
	return sent
}

// RelayAnnouncements forwards every message published on AnnounceChannel to
// all authenticated sessions until ctx is done.
func (b *Broadcaster) RelayAnnouncements(ctx context.Context, ps cache.PubSub) error {
	msgs, cancel, err := ps.Subscribe(ctx, AnnounceChannel)
	if err != nil {
		return err
	}
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			n := b.SendToFiltered(Authenticated, packet.TypeAnnouncement, packet.Announcement{Message: msg.Payload})
			b.logger.Info("announcement relayed", zap.Int("recipients", n))
		}
	}
}

// PublishAnnouncement publishes text on AnnounceChannel.
func PublishAnnouncement(ctx context.Context, ps cache.PubSub, text string) error {
	return ps.Publish(ctx, AnnounceChannel, text)
}
