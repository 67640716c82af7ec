package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kasuganosora/my2dworld/config"
	"github.com/kasuganosora/my2dworld/game/protocol"
	"github.com/kasuganosora/my2dworld/game/session"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxMessageSize    = 8 << 10
	disconnectTimeout = 5 * time.Second
)

// Handler is the Gin handler for GET /ws.
type Handler struct {
	reg      *session.Registry
	proto    *protocol.Handler
	router   *Router
	sec      config.SecurityConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket Handler.
// sec.AllowedOrigins controls which WebSocket origins are accepted.
// An empty slice permits all origins (development only).
func NewHandler(
	reg *session.Registry,
	proto *protocol.Handler,
	router *Router,
	sec config.SecurityConfig,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		reg:    reg,
		proto:  proto,
		router: router,
		sec:    sec,
		logger: logger,
	}
	allowed := sec.AllowedOrigins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true // dev mode: allow all
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// ServeWS handles GET /ws. The connection starts anonymous; the client
// authenticates with an authenticate message.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	s := session.New(conn, c.ClientIP(), h.logger)
	h.reg.Register(s)
	h.logger.Info("connection opened",
		zap.Uint64("session_id", s.ID),
		zap.String("remote_addr", s.RemoteAddr))

	// Blocks until the connection closes.
	h.readPump(conn, s)
}

// readPump reads messages sequentially and dispatches them in arrival order.
func (h *Handler) readPump(conn *websocket.Conn, s *session.Session) {
	defer h.disconnect(s)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(session.ReadDeadline())
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(session.ReadDeadline())
	})

	var limiter *rate.Limiter
	if h.sec.WSMessageRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.sec.WSMessageRPS), h.sec.WSMessageBurst)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				h.logger.Warn("ws unexpected close",
					zap.Uint64("session_id", s.ID),
					zap.Error(err))
			}
			return
		}
		// Reset read deadline on any message.
		_ = conn.SetReadDeadline(session.ReadDeadline())

		if limiter != nil && !limiter.Allow() {
			h.logger.Warn("ws message rate exceeded, dropping",
				zap.Uint64("session_id", s.ID))
			continue
		}

		err = h.router.Dispatch(context.Background(), s, raw)
		if h.proto.Report(s, err) {
			return
		}
	}
}

// disconnect runs the quit-server cleanup once, removes the session from the
// registry and closes it. Only the read pump calls it, so the cleanup never
// races a handler of the same session.
func (h *Handler) disconnect(s *session.Session) {
	s.Disconnect(func() {
		ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := h.proto.QuitServer(ctx, s); err != nil {
			h.proto.Report(s, err)
		}
		h.reg.Unregister(s)
	})
	st := s.State()
	h.logger.Info("connection closed",
		zap.Uint64("session_id", s.ID),
		zap.Int64("user_id", st.UserIDValue()))
}
