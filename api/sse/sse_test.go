package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/my2dworld/game/broadcast"
	"github.com/kasuganosora/my2dworld/game/session"
	"github.com/kasuganosora/my2dworld/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// readEvent returns the next "event:" name and its "data:" line.
func readEvent(t *testing.T, sc *bufio.Scanner) (string, string) {
	t.Helper()
	var name, data string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && name != "":
			return name, data
		}
	}
	require.NoError(t, sc.Err())
	t.Fatal("stream ended")
	return "", ""
}

func TestServeSSE_StatsAndAnnouncements(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, ps := testutil.SetupTestCache(t)
	reg := session.NewRegistry(zap.NewNop())
	s := session.New(nil, "127.0.0.1", zap.NewNop())
	reg.Register(s)
	require.NoError(t, reg.Authenticate(s, 1, "alice"))
	require.NoError(t, reg.JoinShard(s, 4, 10))

	r := gin.New()
	r.GET("/events", NewHandler(ps, reg, time.Hour, zap.NewNop()).ServeSSE)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	name, data := readEvent(t, sc)
	assert.Equal(t, "stats", name)
	assert.JSONEq(t, `{"online":1,"shard_occupancy":{"4":1}}`, data)

	require.NoError(t, broadcast.PublishAnnouncement(ctx, ps, "server restart"))
	name, data = readEvent(t, sc)
	assert.Equal(t, "announce", name)
	assert.Equal(t, "server restart", data)
}
