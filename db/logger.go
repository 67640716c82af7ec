package db

import (
	"context"
	"errors"
	"time"

	mw "github.com/kasuganosora/my2dworld/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// zapLogger routes gorm's query log to zap. Only failed and slow queries are
// logged; record-not-found is an expected outcome of point lookups.
type zapLogger struct {
	log  *zap.Logger
	slow time.Duration
}

// NewLogger returns a gorm logger that reports errors and queries slower
// than slow on log. A nil log silences gorm.
func NewLogger(log *zap.Logger, slow time.Duration) gormlogger.Interface {
	if log == nil {
		return gormlogger.Default.LogMode(gormlogger.Silent)
	}
	return &zapLogger{log: log.Named("gorm"), slow: slow}
}

func (l *zapLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return l }

func (l *zapLogger) Info(_ context.Context, msg string, args ...interface{}) {
	l.log.Sugar().Infof(msg, args...)
}

func (l *zapLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	l.log.Sugar().Warnf(msg, args...)
}

func (l *zapLogger) Error(_ context.Context, msg string, args ...interface{}) {
	l.log.Sugar().Errorf(msg, args...)
}

// Trace tags each logged query with the trace id of the request or ws message
// that issued it.
func (l *zapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Error("query failed",
			zap.String("trace_id", mw.TraceIDFromContext(ctx)),
			zap.String("sql", sql), zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed), zap.Error(err))
	case l.slow > 0 && elapsed > l.slow:
		sql, rows := fc()
		l.log.Warn("slow query",
			zap.String("trace_id", mw.TraceIDFromContext(ctx)),
			zap.String("sql", sql), zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed))
	}
}
