package protocol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kasuganosora/my2dworld/game/packet"
	"github.com/kasuganosora/my2dworld/game/session"
	"github.com/kasuganosora/my2dworld/model"
	"github.com/kasuganosora/my2dworld/store"
	"go.uber.org/zap"
)

// Authenticate logs the session in. Every failure is a terminating rejection.
func (h *Handler) Authenticate(ctx context.Context, s *session.Session, req packet.AuthenticateReq) (err error) {
	start := time.Now()
	defer func() {
		h.record(s, s.State(), packet.TypeAuthenticate, start, map[string]string{"username": req.Username}, err)
	}()

	if s.State().Authenticated {
		return authRejection(KindAlreadyAuthenticated, MsgAlreadyAuthenticated, nil)
	}

	u, err := h.store.UserByCredentials(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return authRejection(KindInvalidCredentials, MsgInvalidCredentials, err)
		}
		return fmt.Errorf("authenticate: %w", err)
	}

	switch err := h.reg.Authenticate(s, u.ID, u.Username); {
	case errors.Is(err, session.ErrAlreadyConnected):
		return authRejection(KindAlreadyConnected, MsgAlreadyConnected, err)
	case errors.Is(err, session.ErrAlreadyAuthenticated):
		return authRejection(KindAlreadyAuthenticated, MsgAlreadyAuthenticated, err)
	case errors.Is(err, session.ErrSessionGone):
		// Closed while the credentials were checked; nobody is listening.
		return &Rejection{Kind: KindSessionGone, Err: err, Terminate: true}
	case err != nil:
		return err
	}

	h.bc.SendTo(s, packet.TypeValidateAuthentication, packet.ValidateAuthentication{Success: true})
	h.logger.Info("user authenticated",
		zap.Int64("user_id", u.ID),
		zap.String("username", u.Username),
		zap.String("remote_addr", s.RemoteAddr))
	return nil
}

// RequestChangeServer leaves the current shard and re-sends the
// authentication acknowledgement so the client shows the shard list again.
func (h *Handler) RequestChangeServer(ctx context.Context, s *session.Session) error {
	if !s.State().InShard() {
		h.skip(s, packet.TypeRequestChangeServer, "not in shard")
		return nil
	}
	if err := h.QuitServer(ctx, s); err != nil {
		return err
	}
	h.bc.SendTo(s, packet.TypeValidateAuthentication, packet.ValidateAuthentication{Success: true})
	return nil
}

// QuitServer persists the current map as the user's last location, tells the
// room the user left and clears shard, map and game. It runs on
// RequestChangeServer and once on disconnect.
func (h *Handler) QuitServer(ctx context.Context, s *session.Session) (err error) {
	st := s.State()
	if !st.Authenticated || st.MapID == nil || st.ShardID == nil {
		return nil
	}
	start := time.Now()
	defer func() { h.record(s, st, "quit_server", start, nil, err) }()

	mapID := *st.MapID
	u := &model.User{ID: *st.UserID, LastLocationID: &mapID}
	if uerr := h.store.UpdateUserFields(ctx, u, model.ColLastLocationID); uerr != nil {
		err = fmt.Errorf("quit server: %w", uerr)
	}

	// Players in a game already left the room at game load.
	h.toOthersInRoom(st, packet.TypePlayerExitRoom, packet.PlayerExitRoom{UserID: u.ID, Username: st.Username})
	s.LeaveShard()
	return err
}
