package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/kasuganosora/my2dworld/game/packet"
	"github.com/kasuganosora/my2dworld/game/session"
	mw "github.com/kasuganosora/my2dworld/middleware"
	"go.uber.org/zap"
)

// HandlerFunc processes a decoded WS message payload.
type HandlerFunc func(ctx context.Context, s *session.Session, payload json.RawMessage) error

// Router dispatches incoming WS packets to registered handlers.
type Router struct {
	handlers map[string]HandlerFunc
	logger   *zap.Logger
}

// NewRouter creates a new Router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// On registers a HandlerFunc for the given message type.
func (r *Router) On(msgType string, fn HandlerFunc) {
	r.handlers[msgType] = fn
}

// Types returns the registered message types.
func (r *Router) Types() []string {
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	return out
}

// Dispatch decodes raw bytes, validates seq, and invokes the appropriate
// handler. Malformed, replayed and unknown packets are logged and dropped.
// The handler's error is returned unchanged; a handler panic is returned as
// an error.
func (r *Router) Dispatch(ctx context.Context, s *session.Session, raw []byte) (err error) {
	var pkt packet.Packet
	if err := json.Unmarshal(raw, &pkt); err != nil {
		r.logger.Warn("malformed packet",
			zap.Uint64("session_id", s.ID),
			zap.Error(err))
		return nil
	}

	// Monotonic seq check (anti-replay). Seq == 0 means no seq tracking.
	if pkt.Seq != 0 && pkt.Seq <= s.LastSeq {
		r.logger.Warn("replayed or out-of-order packet",
			zap.Uint64("session_id", s.ID),
			zap.Uint64("seq", pkt.Seq),
			zap.Uint64("last_seq", s.LastSeq))
		return nil
	}
	if pkt.Seq != 0 {
		s.LastSeq = pkt.Seq
	}

	// Assign a trace ID for this message dispatch.
	s.TraceID = uuid.NewString()
	ctx = mw.WithTraceID(ctx, s.TraceID)

	fn, ok := r.handlers[pkt.Type]
	if !ok {
		r.logger.Debug("unhandled message type",
			zap.String("type", pkt.Type),
			zap.Uint64("session_id", s.ID))
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic in ws handler",
				zap.String("type", pkt.Type),
				zap.String("trace_id", s.TraceID),
				zap.Any("recover", rec),
				zap.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%s handler panicked: %v", pkt.Type, rec)
		}
	}()
	return fn(ctx, s, pkt.Payload)
}

// Bind adapts a typed handler to HandlerFunc by decoding the payload into T.
func Bind[T any](fn func(ctx context.Context, s *session.Session, req T) error) HandlerFunc {
	return func(ctx context.Context, s *session.Session, payload json.RawMessage) error {
		var req T
		if err := packet.Decode(payload, &req); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return fn(ctx, s, req)
	}
}

// BindEmpty adapts a handler whose message carries no payload.
func BindEmpty(fn func(ctx context.Context, s *session.Session) error) HandlerFunc {
	return func(ctx context.Context, s *session.Session, _ json.RawMessage) error {
		return fn(ctx, s)
	}
}
