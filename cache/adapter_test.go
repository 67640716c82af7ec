package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_LocalFallback(t *testing.T) {
	c, err := NewCache(CacheConfig{})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.Get(ctx, "nope")
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestNewPubSub_LocalAdapter(t *testing.T) {
	ps, err := NewPubSub(CacheConfig{LocalPubSubBuf: 4})
	require.NoError(t, err)

	ctx := context.Background()
	ch, cancel, err := ps.Subscribe(ctx, "world:announce")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "world:announce", "hello"))
	select {
	case msg := <-ch:
		assert.Equal(t, "world:announce", msg.Channel)
		assert.Equal(t, "hello", msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("no message relayed through adapter")
	}
}

func TestIsNotFound_OtherError(t *testing.T) {
	assert.False(t, IsNotFound(context.Canceled))
	assert.False(t, IsNotFound(nil))
}
