package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

func newTestSession(r *Registry) *Session {
	s := New(nil, "", zap.NewNop())
	r.Register(s)
	return s
}

func TestRegistry_RegisterUnregister(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	a := newTestSession(r)
	b := newTestSession(r)
	assert.Equal(t, 2, r.Count())

	require.NoError(t, r.Authenticate(a, 1, "alice"))
	assert.True(t, r.ExistsUserID(1))
	assert.Same(t, a, r.Get(1))

	r.Unregister(a)
	assert.False(t, r.ExistsUserID(1))
	assert.Nil(t, r.Get(1))
	assert.Equal(t, []*Session{b}, r.All())
}

func TestRegistry_AuthenticateRejections(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	a := newTestSession(r)
	b := newTestSession(r)

	require.NoError(t, r.Authenticate(a, 1, "alice"))
	assert.ErrorIs(t, r.Authenticate(a, 2, "bob"), ErrAlreadyAuthenticated)
	assert.Equal(t, int64(1), *a.State().UserID, "state unchanged")

	assert.ErrorIs(t, r.Authenticate(b, 1, "alice"), ErrAlreadyConnected)
	st := b.State()
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.UserID)

	// The claim is released when the holder goes away.
	r.Unregister(a)
	assert.NoError(t, r.Authenticate(b, 1, "alice"))
}

func TestRegistry_UnregisterStaleDoesNotReleaseClaim(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	a := newTestSession(r)
	require.NoError(t, r.Authenticate(a, 1, "alice"))

	stranger := New(nil, "", zap.NewNop())
	r.Unregister(stranger)
	assert.True(t, r.ExistsUserID(1))
}

func TestRegistry_FindAndCountWhere(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	var inRoom []*Session
	for i := 0; i < 6; i++ {
		s := newTestSession(r)
		require.NoError(t, r.Authenticate(s, int64(i+1), fmt.Sprintf("u%d", i)))
		require.NoError(t, r.JoinShard(s, 1, 100))
		s.SetMap(int64(i % 2))
		if i%2 == 0 {
			inRoom = append(inRoom, s)
		}
	}
	inRoom[0].SetGame(9)

	room := func(st State) bool { return st.InRoom(1, 0) }
	assert.Equal(t, 2, r.CountWhere(room))
	assert.ElementsMatch(t, inRoom[1:], r.Find(room))
	assert.Empty(t, r.Find(func(State) bool { return false }))
}

func TestRegistry_JoinShardCapacity(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	a := newTestSession(r)
	b := newTestSession(r)
	c := newTestSession(r)

	assert.NoError(t, r.JoinShard(a, 1, 2))
	assert.NoError(t, r.JoinShard(b, 1, 2))
	assert.ErrorIs(t, r.JoinShard(c, 1, 2), ErrShardFull)
	assert.Nil(t, c.State().ShardID)

	// Rejoining the same shard does not count yourself.
	a.SetMap(4)
	assert.NoError(t, r.JoinShard(a, 1, 2))
	assert.Nil(t, a.State().MapID)

	assert.Equal(t, map[int64]int{1: 2}, r.ShardOccupancy())
}

func TestRegistry_JoinShardConcurrentNeverOverfills(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	const max = 5
	var joined atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		s := newTestSession(r)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.JoinShard(s, 7, max) == nil {
				joined.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(max), joined.Load())
	assert.Equal(t, max, r.ShardOccupancy()[7])
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	sessions := []*Session{newTestSession(r), newTestSession(r)}
	for _, s := range sessions {
		go func(s *Session) {
			<-s.Done
			r.Unregister(s)
		}(s)
	}
	r.CloseAll(time.Second)
	assert.Equal(t, 0, r.Count())
	for _, s := range sessions {
		assert.True(t, s.IsClosed())
	}
}

// Concurrent logins of overlapping users leave at most one authenticated
// session per user, and exactly one when anyone tried.
func TestRegistry_OneSessionPerUserProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := NewRegistry(zap.NewNop())
		users := rapid.SliceOfN(rapid.Int64Range(1, 4), 1, 24).Draw(rt, "users")

		sessions := make([]*Session, len(users))
		for i := range users {
			sessions[i] = newTestSession(r)
		}

		var wg sync.WaitGroup
		var wins sync.Map
		for i, uid := range users {
			wg.Add(1)
			go func(s *Session, uid int64) {
				defer wg.Done()
				if r.Authenticate(s, uid, "u") == nil {
					n, _ := wins.LoadOrStore(uid, new(atomic.Int32))
					n.(*atomic.Int32).Add(1)
				}
			}(sessions[i], uid)
		}
		wg.Wait()

		seen := map[int64]bool{}
		for _, uid := range users {
			seen[uid] = true
		}
		for uid := range seen {
			n, ok := wins.Load(uid)
			if !ok || n.(*atomic.Int32).Load() != 1 {
				rt.Fatalf("user %d: want exactly one successful login", uid)
			}
			count := r.CountWhere(func(st State) bool {
				return st.Authenticated && *st.UserID == uid
			})
			if count != 1 {
				rt.Fatalf("user %d has %d authenticated sessions", uid, count)
			}
		}
	})
}

func TestRegistry_AuthenticateRefusesClosedOrUnregistered(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	// Closed and cleaned up while its credentials were being checked.
	gone := newTestSession(r)
	gone.Close()
	r.Unregister(gone)
	assert.ErrorIs(t, r.Authenticate(gone, 1, "alice"), ErrSessionGone)
	assert.Equal(t, 0, r.Count(), "a refused session is not re-registered")
	assert.False(t, r.ExistsUserID(1))
	assert.False(t, gone.State().Authenticated)

	// Closed but not yet unregistered.
	closing := newTestSession(r)
	closing.Close()
	assert.ErrorIs(t, r.Authenticate(closing, 1, "alice"), ErrSessionGone)
	assert.False(t, r.ExistsUserID(1))

	// Never registered.
	stray := New(nil, "", zap.NewNop())
	assert.ErrorIs(t, r.Authenticate(stray, 1, "alice"), ErrSessionGone)

	fresh := newTestSession(r)
	assert.NoError(t, r.Authenticate(fresh, 1, "alice"))
	assert.Same(t, fresh, r.Get(1))
}

func TestRegistry_JoinShardRefusesClosedOrUnregistered(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	s := newTestSession(r)
	require.NoError(t, r.Authenticate(s, 1, "alice"))
	s.Close()
	assert.ErrorIs(t, r.JoinShard(s, 1, 10), ErrSessionGone)

	r.Unregister(s)
	assert.ErrorIs(t, r.JoinShard(s, 1, 10), ErrSessionGone)
	assert.Nil(t, s.State().ShardID)
	assert.Empty(t, r.ShardOccupancy())
}
