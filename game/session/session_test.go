package session

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kasuganosora/my2dworld/game/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type frame struct {
	kind int
	data []byte
}

type fakeConn struct {
	mu      sync.Mutex
	frames  chan frame
	failAll bool
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan frame, 64), closed: make(chan struct{})}
}

func (c *fakeConn) WriteMessage(kind int, data []byte) error {
	c.mu.Lock()
	fail := c.failAll
	c.mu.Unlock()
	if fail {
		return errors.New("broken pipe")
	}
	c.frames <- frame{kind: kind, data: data}
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func nextFrame(t *testing.T, c *fakeConn) frame {
	t.Helper()
	select {
	case f := <-c.frames:
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame written")
		return frame{}
	}
}

func TestSession_WritePumpDelivers(t *testing.T) {
	conn := newFakeConn()
	s := New(conn, "127.0.0.1", zap.NewNop())
	defer s.Close()

	require.True(t, s.Send(packet.TypeAnnouncement, packet.Announcement{Message: "hello"}))

	f := nextFrame(t, conn)
	assert.Equal(t, websocket.TextMessage, f.kind)
	var pkt packet.Packet
	require.NoError(t, json.Unmarshal(f.data, &pkt))
	assert.Equal(t, packet.TypeAnnouncement, pkt.Type)
}

func TestSession_CloseFlushesQueueThenCloses(t *testing.T) {
	conn := newFakeConn()
	s := New(nil, "", zap.NewNop())
	s.Conn = conn
	require.True(t, s.SendRaw([]byte(`{"type":"a"}`)))
	require.True(t, s.SendRaw([]byte(`{"type":"b"}`)))
	s.Close()
	go s.writePump()

	assert.Equal(t, `{"type":"a"}`, string(nextFrame(t, conn).data))
	assert.Equal(t, `{"type":"b"}`, string(nextFrame(t, conn).data))
	assert.Equal(t, websocket.CloseMessage, nextFrame(t, conn).kind)
	select {
	case <-conn.closed:
	case <-time.After(time.Second):
		t.Fatal("conn not closed")
	}
}

func TestSession_WriteErrorClosesSession(t *testing.T) {
	conn := newFakeConn()
	conn.failAll = true
	s := New(conn, "", zap.NewNop())
	s.SendRaw([]byte("x"))

	assert.Eventually(t, s.IsClosed, time.Second, 5*time.Millisecond)
}

func TestSession_SendAfterCloseDropped(t *testing.T) {
	s := New(nil, "", zap.NewNop())
	s.Close()
	s.Close()
	assert.False(t, s.SendRaw([]byte("x")))
	assert.Empty(t, s.SendChan)
}

func TestSession_FullQueueDrops(t *testing.T) {
	s := New(nil, "", zap.NewNop())
	for i := 0; i < sendChanBuf; i++ {
		require.True(t, s.SendRaw([]byte("x")))
	}
	assert.False(t, s.SendRaw([]byte("overflow")))
}

func TestSession_DisconnectRunsCleanupOnce(t *testing.T) {
	s := New(nil, "", zap.NewNop())
	calls := 0
	for i := 0; i < 3; i++ {
		s.Disconnect(func() { calls++ })
	}
	assert.Equal(t, 1, calls)
	assert.True(t, s.IsClosed())
}

func TestSession_StateTransitions(t *testing.T) {
	s := New(nil, "", zap.NewNop())
	st := s.State()
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.UserID)
	assert.False(t, st.InShard())

	reg := NewRegistry(zap.NewNop())
	reg.Register(s)
	require.NoError(t, reg.Authenticate(s, 1, "alice"))
	require.NoError(t, reg.JoinShard(s, 10, 5))
	s.SetMap(3)
	assert.True(t, s.State().InRoom(10, 3))

	s.SetGame(4)
	assert.True(t, s.State().InGame())
	assert.False(t, s.State().InRoom(10, 3), "players in a game are not in the room")

	s.ClearGame()
	st = s.State()
	assert.True(t, st.InRoom(10, 3))
	require.NotNil(t, st.ShardID)

	s.SetPosition(1.5, 2.5)
	assert.Equal(t, float32(1.5), s.State().X)

	s.LeaveShard()
	st = s.State()
	assert.Nil(t, st.ShardID)
	assert.Nil(t, st.MapID)
	assert.Nil(t, st.GameID)
	assert.True(t, st.Authenticated)
}

func TestSession_SnapshotIsolated(t *testing.T) {
	s := New(nil, "", zap.NewNop())
	s.SetMap(1)
	snap := s.State()
	s.SetMap(2)
	assert.Equal(t, int64(1), *snap.MapID)
}
