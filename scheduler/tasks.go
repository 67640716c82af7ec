package scheduler

import (
	"context"
	"strconv"
	"time"

	"github.com/kasuganosora/my2dworld/cache"
	"github.com/kasuganosora/my2dworld/game/session"
	"github.com/kasuganosora/my2dworld/middleware"
	"go.uber.org/zap"
)

// Task names.
const (
	TaskStaleSessionSweep = "stale_session_sweep"
	TaskRegistryStats     = "registry_stats"
	TaskRateLimitSweep    = "rate_limit_sweep"
)

// ShardOccupancyKey is the cache hash holding the session count per shard.
const ShardOccupancyKey = "world:shard_occupancy"

// StaleSessionSweep aborts the transport of every registered session that is
// already closed, so a read pump stuck on a half-open connection returns. The
// read pump owns the quit-server cleanup and unregistration; the sweep never
// touches session state.
func StaleSessionSweep(reg *session.Registry, logger *zap.Logger) TaskFn {
	return func(context.Context) {
		n := 0
		for _, s := range reg.All() {
			if s.IsClosed() {
				s.Abort()
				n++
			}
		}
		if n > 0 {
			logger.Info("aborted stale sessions", zap.Int("count", n))
		}
	}
}

// RegistryStats publishes per-shard occupancy to the cache so every node and
// the admin API can read it, and logs it.
func RegistryStats(reg *session.Registry, c cache.Cache, logger *zap.Logger) TaskFn {
	return func(ctx context.Context) {
		occ := reg.ShardOccupancy()
		snapshot := make(map[string]string, len(occ))
		fields := make([]zap.Field, 0, len(occ)+1)
		fields = append(fields, zap.Int("online", reg.Count()))
		for shardID, n := range occ {
			key := strconv.FormatInt(shardID, 10)
			snapshot[key] = strconv.Itoa(n)
			fields = append(fields, zap.Int("shard_"+key, n))
		}
		if err := c.HReplace(ctx, ShardOccupancyKey, snapshot); err != nil {
			logger.Warn("registry stats: publish failed", zap.Error(err))
			return
		}
		logger.Info("registry stats", fields...)
	}
}

// RateLimitSweep drops HTTP rate-limit buckets idle for longer than idle.
func RateLimitSweep(l *middleware.KeyedLimiter, idle time.Duration, logger *zap.Logger) TaskFn {
	return func(context.Context) {
		if n := l.Sweep(idle); n > 0 {
			logger.Debug("rate limit buckets swept", zap.Int("removed", n), zap.Int("remaining", l.Len()))
		}
	}
}
