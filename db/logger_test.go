package db

import (
	"context"
	"errors"
	"testing"
	"time"

	mw "github.com/kasuganosora/my2dworld/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func TestZapLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLogger(zap.New(core), 50*time.Millisecond)
	ctx := context.Background()
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), fc, nil)
	l.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.Len(), "fast and not-found queries are not logged")

	l.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	l.Trace(ctx, time.Now(), fc, errors.New("disk I/O error"))

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "slow query", entries[0].Message)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, "query failed", entries[1].Message)
		assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	}
}

func TestZapLogger_TraceCarriesTraceID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLogger(zap.New(core), time.Minute)
	ctx := mw.WithTraceID(context.Background(), "trace-7")

	l.Trace(ctx, time.Now(), func() (string, int64) { return "UPDATE users", 0 }, errors.New("locked"))

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "trace-7", entries[0].ContextMap()["trace_id"])
	}
}

func TestOpen_WithLogger(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	gdb, err := Open(configMemory(), zap.New(core))
	if !assert.NoError(t, err) {
		return
	}
	assert.Error(t, gdb.Exec("SELECT * FROM missing_table").Error)
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())
}
