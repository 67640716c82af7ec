package session

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyConnected is returned when another live session holds the user.
	ErrAlreadyConnected = errors.New("session: user already connected")
	// ErrAlreadyAuthenticated is returned when the session is already logged in.
	ErrAlreadyAuthenticated = errors.New("session: already authenticated")
	// ErrSessionGone is returned for a session that is closed or no longer registered.
	ErrSessionGone = errors.New("session: closed or unregistered")
	// ErrShardFull is returned by JoinShard when the shard is at capacity.
	ErrShardFull = errors.New("session: shard full")
)

// Predicate selects sessions by their state snapshot.
type Predicate func(State) bool

// Registry is the set of all live sessions. Every scan copies the matching
// sessions under the read lock, so a concurrently unregistered session is
// either fully included or absent.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uint64]*Session
	byUser   map[int64]*Session
	logger   *zap.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[uint64]*Session),
		byUser:   make(map[int64]*Session),
		logger:   logger,
	}
}

// Register adds an anonymous session.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	r.logger.Debug("session registered",
		zap.Uint64("session_id", s.ID),
		zap.String("remote_addr", s.RemoteAddr))
}

// Unregister removes s. The user claim is released only if s holds it.
func (r *Registry) Unregister(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s.ID)
	st := s.State()
	if st.UserID != nil && r.byUser[*st.UserID] == s {
		delete(r.byUser, *st.UserID)
	}
	r.logger.Debug("session unregistered",
		zap.Uint64("session_id", s.ID),
		zap.Int64("user_id", st.UserIDValue()))
}

// live reports whether s is registered and open. Callers hold r.mu.
func (r *Registry) live(s *Session) bool {
	return r.sessions[s.ID] == s && !s.IsClosed()
}

// Authenticate marks s as logged in as userID. The duplicate check and the
// claim happen under one write lock, so two concurrent logins of the same
// user cannot both succeed. A session that was closed or unregistered while
// the credentials were being checked is refused and never claims the user.
func (r *Registry) Authenticate(s *Session, userID int64, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.live(s) {
		return ErrSessionGone
	}
	if s.State().Authenticated {
		return ErrAlreadyAuthenticated
	}
	if other, ok := r.byUser[userID]; ok && other != s {
		return ErrAlreadyConnected
	}
	s.update(func(st *State) {
		st.Authenticated = true
		st.UserID = &userID
		st.Username = username
	})
	r.byUser[userID] = s
	return nil
}

// JoinShard places s in shardID if fewer than max other sessions occupy it.
// Map and game are cleared. The occupancy check and the join are atomic.
func (r *Registry) JoinShard(s *Session, shardID int64, max int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.live(s) {
		return ErrSessionGone
	}

	n := 0
	for _, other := range r.sessions {
		if other == s {
			continue
		}
		st := other.State()
		if st.ShardID != nil && *st.ShardID == shardID {
			n++
		}
	}
	if n >= max {
		return ErrShardFull
	}
	s.update(func(st *State) {
		st.ShardID = &shardID
		st.MapID = nil
		st.GameID = nil
	})
	return nil
}

// Find returns every registered session whose state satisfies pred.
func (r *Registry) Find(pred Predicate) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.sessions {
		if pred(s.State()) {
			out = append(out, s)
		}
	}
	return out
}

// CountWhere returns how many registered sessions satisfy pred.
func (r *Registry) CountWhere(pred Predicate) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.sessions {
		if pred(s.State()) {
			n++
		}
	}
	return n
}

// ExistsUserID reports whether a live session is logged in as userID.
func (r *Registry) ExistsUserID(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// Get returns the session logged in as userID, or nil.
func (r *Registry) Get(userID int64) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byUser[userID]
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// All returns a snapshot slice of all current sessions.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// ShardOccupancy returns the number of sessions in each shard.
func (r *Registry) ShardOccupancy() map[int64]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int64]int)
	for _, s := range r.sessions {
		if st := s.State(); st.ShardID != nil {
			out[*st.ShardID]++
		}
	}
	return out
}

// CloseAll closes every session and waits up to maxWait for their read pumps
// to unregister them.
func (r *Registry) CloseAll(maxWait time.Duration) {
	sessions := r.All()
	r.logger.Info("closing all sessions", zap.Int("count", len(sessions)))
	for _, s := range sessions {
		s.Close()
	}

	start := time.Now()
	for time.Since(start) < maxWait {
		if r.Count() == 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}
