package protocol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kasuganosora/my2dworld/game/broadcast"
	"github.com/kasuganosora/my2dworld/game/packet"
	"github.com/kasuganosora/my2dworld/game/session"
	"github.com/kasuganosora/my2dworld/model"
	"go.uber.org/zap"
)

// ChangeServer joins a shard if it has room, pushes the user information and
// enters the user's last known map. A full shard is a silent no-op.
func (h *Handler) ChangeServer(ctx context.Context, s *session.Session, req packet.ChangeServerReq) (err error) {
	st := s.State()
	if !st.Authenticated {
		h.skip(s, packet.TypeChangeServer, "not authenticated")
		return nil
	}
	start := time.Now()
	defer func() { h.record(s, s.State(), packet.TypeChangeServer, start, req, err) }()

	shard, err := h.store.Shard(ctx, req.ServerID)
	if err != nil {
		return fmt.Errorf("change server: %w", err)
	}
	u, err := h.store.UserByID(ctx, *st.UserID)
	if err != nil {
		return fmt.Errorf("change server: %w", err)
	}

	switch err := h.reg.JoinShard(s, shard.ID, shard.MaxPlayers); {
	case errors.Is(err, session.ErrShardFull):
		h.logger.Info("shard full",
			zap.Int64("user_id", u.ID),
			zap.Int64("shard_id", shard.ID),
			zap.Int("max_players", shard.MaxPlayers))
		return nil
	case errors.Is(err, session.ErrSessionGone):
		h.skip(s, packet.TypeChangeServer, "session closed")
		return nil
	case err != nil:
		return fmt.Errorf("change server: %w", err)
	}
	// A direct switch from another shard leaves the old room behind.
	h.toOthersInRoom(st, packet.TypePlayerExitRoom, packet.PlayerExitRoom{UserID: u.ID, Username: u.Username})

	items, err := h.store.Items(ctx, u.EquippedItemIDs())
	if err != nil {
		return fmt.Errorf("change server: equipped items: %w", err)
	}
	h.bc.SendTo(s, packet.TypePushUserInformation, packet.PushUserInformation{
		UserID:         u.ID,
		Username:       u.Username,
		LastLocationID: u.LastLocationID,
		Equipment:      packet.NewEquipment(u),
		EquippedItems:  items,
	})

	location := h.cfg.DefaultLocationID
	if u.LastLocationID != nil {
		location = *u.LastLocationID
	}
	return h.enterMap(ctx, s, u, location, 0, false)
}

// MapChange moves the session to the map the client walked into.
func (h *Handler) MapChange(ctx context.Context, s *session.Session, req packet.MapChangeReq) error {
	if !s.State().InShard() {
		h.skip(s, packet.TypeMapChange, "not in shard")
		return nil
	}
	return h.enterMap(ctx, s, nil, req.MapID, req.ExitID, false)
}

// GameLoad takes the session out of its room and into a mini-game.
func (h *Handler) GameLoad(ctx context.Context, s *session.Session, req packet.GameLoadReq) error {
	st := s.State()
	if !st.InShard() {
		h.skip(s, packet.TypeGameLoad, "not in shard")
		return nil
	}
	game, err := h.store.Game(ctx, req.GameID)
	if err != nil {
		return fmt.Errorf("game load: %w", err)
	}
	u, err := h.store.UserByID(ctx, *st.UserID)
	if err != nil {
		return fmt.Errorf("game load: %w", err)
	}

	h.toOthersInRoom(st, packet.TypePlayerExitRoom, packet.PlayerExitRoom{UserID: u.ID, Username: u.Username})
	s.SetGame(game.ID)
	h.bc.SendTo(s, packet.TypePlayerGameLoad, packet.PlayerGameLoad{Game: game})
	return nil
}

// GameQuit returns the session from its game to the map it was on.
func (h *Handler) GameQuit(ctx context.Context, s *session.Session) error {
	st := s.State()
	if !st.InGame() {
		h.skip(s, packet.TypeGameQuit, "not in game")
		return nil
	}
	s.ClearGame()
	location := h.cfg.DefaultLocationID
	if st.MapID != nil {
		location = *st.MapID
	}
	return h.enterMap(ctx, s, nil, location, -1, true)
}

// GameProgressUpdate is accepted and ignored.
func (h *Handler) GameProgressUpdate(context.Context, *session.Session) error {
	return nil
}

// enterMap moves s to mapID. The old room is told the user left, the caller
// gets the map with the players already there, and the new room is told the
// user joined. u is loaded when nil. rejoin announces the arrival even when
// the map did not change, which is how a player returning from a game
// becomes visible again.
func (h *Handler) enterMap(ctx context.Context, s *session.Session, u *model.User, mapID, exitID int64, rejoin bool) error {
	m, err := h.store.Map(ctx, mapID)
	if err != nil {
		return fmt.Errorf("enter map: %w", err)
	}
	st := s.State()
	if u == nil {
		if u, err = h.store.UserByID(ctx, *st.UserID); err != nil {
			return fmt.Errorf("enter map: %w", err)
		}
	}

	moved := st.MapID == nil || *st.MapID != mapID
	if moved && st.MapID != nil {
		h.toOthersInRoom(st, packet.TypePlayerExitRoom, packet.PlayerExitRoom{UserID: u.ID, Username: u.Username})
	}
	s.SetMap(mapID)
	st = s.State()

	others := broadcast.Except(broadcast.Room(*st.ShardID, mapID), u.ID)
	present := h.reg.Find(others)
	players := make([]packet.RoomPlayer, 0, len(present))
	for _, p := range present {
		players = append(players, roomPlayer(p.State()))
	}
	h.bc.SendTo(s, packet.TypeChangeMap, packet.ChangeMap{
		MapID:   mapID,
		ExitID:  exitID,
		Map:     m,
		Players: players,
	})

	if (moved || rejoin) && st.GameID == nil {
		h.bc.SendToFiltered(others, packet.TypePlayerJoinedRoom, packet.PlayerJoinedRoom{
			RoomPlayer: roomPlayer(st),
			Equipment:  packet.NewEquipment(u),
		})
	}
	return nil
}
