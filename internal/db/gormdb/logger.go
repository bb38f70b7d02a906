package gormdb

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kailas-cloud/kwsearch/internal/logger"
)

// ZapLogger routes gorm logs to zap. Statements go to the request logger
// when the context carries one.
type ZapLogger struct {
	base          *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewZapLogger creates a gorm logger at Warn level.
func NewZapLogger(base *zap.Logger, slowThreshold time.Duration) *ZapLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &ZapLogger{base: base.Named("gorm"), level: gormlogger.Warn, slowThreshold: slowThreshold}
}

// LogMode returns a copy with the given level.
func (l *ZapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *ZapLogger) Info(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.base.Sugar().Infof(msg, data...)
	}
}

func (l *ZapLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.base.Sugar().Warnf(msg, data...)
	}
}

func (l *ZapLogger) Error(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.base.Sugar().Errorf(msg, data...)
	}
}

// Trace logs failed and slow statements. Not-found and unique violations are
// expected outcomes and only reach debug.
func (l *ZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	log := logger.FromContextOr(ctx, l.base)

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && !IsUniqueViolation(err):
		log.Error("sql error", append(fields, zap.Error(err))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		log.Warn("slow sql", fields...)
	case l.level >= gormlogger.Info:
		log.Debug("sql", fields...)
	}
}
