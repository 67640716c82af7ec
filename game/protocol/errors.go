package protocol

import (
	"errors"

	"github.com/kasuganosora/my2dworld/game/packet"
	"github.com/kasuganosora/my2dworld/game/session"
	"github.com/kasuganosora/my2dworld/store"
	"go.uber.org/zap"
)

// Kind classifies an expected rejection.
type Kind string

const (
	KindAlreadyConnected     Kind = "already_connected"
	KindInvalidCredentials   Kind = "invalid_credentials"
	KindAlreadyAuthenticated Kind = "already_authenticated"
	KindInvalidEquipItem     Kind = "invalid_equip_item"
	KindUnsupported          Kind = "unsupported"
	KindSessionGone          Kind = "session_gone"
)

// User-facing rejection messages.
const (
	MsgAlreadyConnected     = "User already connected."
	MsgInvalidCredentials   = "Invalid username or password."
	MsgAlreadyAuthenticated = "Already authenticated."
	MsgInvalidEquipItem     = "Invalid equip item received."
	MsgShopUnsupported      = "shop purchases are not supported"
)

// Rejection is an expected refusal of a message. Notify asks the transport to
// tell the client; Terminate asks it to close the connection afterwards.
type Rejection struct {
	Kind      Kind
	Message   string
	Err       error
	Notify    bool
	Terminate bool
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return string(r.Kind) + ": " + r.Err.Error()
	}
	return string(r.Kind) + ": " + r.Message
}

func (r *Rejection) Unwrap() error { return r.Err }

// IsAuth reports whether the rejection answers an authenticate request.
func (r *Rejection) IsAuth() bool {
	switch r.Kind {
	case KindAlreadyConnected, KindInvalidCredentials, KindAlreadyAuthenticated:
		return true
	}
	return false
}

func authRejection(kind Kind, msg string, err error) *Rejection {
	return &Rejection{Kind: kind, Message: msg, Err: err, Notify: true, Terminate: true}
}

// Report handles a handler error for s: rejections are surfaced to the client
// when requested, everything else is logged. It returns true when the
// connection must be closed.
func (h *Handler) Report(s *session.Session, err error) bool {
	if err == nil {
		return false
	}
	log := s.Logger().With(zap.String("trace_id", s.TraceID))

	var rej *Rejection
	if errors.As(err, &rej) {
		log.Info("message rejected", zap.String("kind", string(rej.Kind)), zap.Error(rej.Err))
		if rej.Notify {
			if rej.IsAuth() {
				h.bc.SendTo(s, packet.TypeValidateAuthentication,
					packet.ValidateAuthentication{Success: false, Message: rej.Message})
			} else {
				h.bc.SendTo(s, packet.TypeError, packet.Error{Kind: string(rej.Kind), Message: rej.Message})
			}
		}
		return rej.Terminate
	}

	if errors.Is(err, store.ErrNotFound) {
		log.Warn("handler lookup failed", zap.Error(err))
	} else {
		log.Error("handler error", zap.Error(err))
	}
	return false
}
