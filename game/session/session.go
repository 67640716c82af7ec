// Package session holds per-connection state and the registry of every live
// connection.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kasuganosora/my2dworld/game/packet"
	"go.uber.org/zap"
)

const (
	sendChanBuf   = 256
	writeDeadline = 10 * time.Second
	readDeadline  = 60 * time.Second
	pingInterval  = 30 * time.Second // server-side WS ping
)

// Conn is the part of *websocket.Conn the write pump needs.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

var nextID atomic.Uint64

// State is an immutable snapshot of a session's protocol state.
// UserID is set iff Authenticated. MapID and GameID are only meaningful
// while ShardID is set.
type State struct {
	Authenticated bool
	UserID        *int64
	Username      string
	ShardID       *int64
	MapID         *int64
	GameID        *int64
	X, Y          float32
}

// InShard reports whether the session is authenticated and has joined a shard.
func (st State) InShard() bool {
	return st.Authenticated && st.ShardID != nil
}

// InGame reports whether the session is inside a mini-game.
func (st State) InGame() bool {
	return st.InShard() && st.GameID != nil
}

// InRoom reports whether the session is in the given shard and map and not in a game.
func (st State) InRoom(shardID, mapID int64) bool {
	return st.InShard() &&
		*st.ShardID == shardID &&
		st.MapID != nil && *st.MapID == mapID &&
		st.GameID == nil
}

// UserIDValue returns the user id or 0 for an anonymous session.
func (st State) UserIDValue() int64 {
	if st.UserID == nil {
		return 0
	}
	return *st.UserID
}

// Session is one live connection. The read pump owning it is the only writer
// of its state; registry scans read it concurrently through State.
type Session struct {
	ID         uint64
	Conn       Conn
	RemoteAddr string

	SendChan chan []byte
	Done     chan struct{}

	// Owned by the read pump.
	TraceID string
	LastSeq uint64

	mu    sync.Mutex
	state State

	closeOnce      sync.Once
	disconnectOnce sync.Once
	logger         *zap.Logger
}

// New creates an anonymous Session. When conn is non-nil a write goroutine is
// started that drains SendChan into it; otherwise the caller drains SendChan.
func New(conn Conn, remoteAddr string, logger *zap.Logger) *Session {
	s := &Session{
		ID:         nextID.Add(1),
		Conn:       conn,
		RemoteAddr: remoteAddr,
		SendChan:   make(chan []byte, sendChanBuf),
		Done:       make(chan struct{}),
		logger:     logger,
	}
	if conn != nil {
		go s.writePump()
	}
	return s
}

// writePump drains SendChan and writes to the WebSocket connection.
// Also sends periodic WebSocket pings to detect dead connections quickly.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.Conn.Close()
	for {
		select {
		case data := <-s.SendChan:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("ws write error",
					zap.Uint64("session_id", s.ID),
					zap.Error(err))
				s.Close()
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.Done:
			s.flush()
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			_ = s.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued, so a rejection sent right before
// Close reaches the client.
func (s *Session) flush() {
	for {
		select {
		case data := <-s.SendChan:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

// SendRaw enqueues pre-encoded data without blocking. It reports false when
// the session is closed or its queue is full.
func (s *Session) SendRaw(data []byte) bool {
	if s.IsClosed() {
		return false
	}
	select {
	case s.SendChan <- data:
		return true
	case <-s.Done:
		return false
	default:
		if !s.IsClosed() {
			s.logger.Warn("send channel full, dropping packet",
				zap.Uint64("session_id", s.ID))
		}
		return false
	}
}

// Send encodes payload as a packet of type typ and enqueues it.
func (s *Session) Send(typ string, payload interface{}) bool {
	data, err := packet.Encode(typ, payload)
	if err != nil {
		s.logger.Error("encode packet", zap.String("type", typ), zap.Error(err))
		return false
	}
	return s.SendRaw(data)
}

// Close signals the writePump to shut down. It is safe to call repeatedly.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.Done) })
}

// Abort closes the session and its transport without waiting for the write
// pump to flush. A read pump blocked on the connection returns and runs the
// disconnect cleanup itself.
func (s *Session) Abort() {
	s.Close()
	if s.Conn != nil {
		_ = s.Conn.Close()
	}
}

// IsClosed returns true if the session has been closed.
func (s *Session) IsClosed() bool {
	select {
	case <-s.Done:
		return true
	default:
		return false
	}
}

// Disconnect runs cleanup at most once over the session's lifetime, then
// closes it. Later calls only close.
func (s *Session) Disconnect(cleanup func()) {
	s.disconnectOnce.Do(func() {
		if cleanup != nil {
			cleanup()
		}
	})
	s.Close()
}

// ReadDeadline returns the deadline the read pump applies after each message.
func ReadDeadline() time.Time {
	return time.Now().Add(readDeadline)
}

// State returns a snapshot of the protocol state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Logger returns the session logger annotated with its identity.
func (s *Session) Logger() *zap.Logger {
	st := s.State()
	return s.logger.With(zap.Uint64("session_id", s.ID), zap.Int64("user_id", st.UserIDValue()))
}

func (s *Session) update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// SetMap sets the current map.
func (s *Session) SetMap(mapID int64) {
	s.update(func(st *State) { st.MapID = &mapID })
}

// SetGame sets the current game.
func (s *Session) SetGame(gameID int64) {
	s.update(func(st *State) { st.GameID = &gameID })
}

// ClearGame leaves the current game; shard and map are kept.
func (s *Session) ClearGame() {
	s.update(func(st *State) { st.GameID = nil })
}

// LeaveShard clears shard, map and game.
func (s *Session) LeaveShard() {
	s.update(func(st *State) {
		st.ShardID = nil
		st.MapID = nil
		st.GameID = nil
	})
}

// SetPosition records the last position reported by the client.
func (s *Session) SetPosition(x, y float32) {
	s.update(func(st *State) {
		st.X = x
		st.Y = y
	})
}
