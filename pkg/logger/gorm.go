package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// maxSQLLength caps the statement text written per entry
const maxSQLLength = 1000

// GormLogger routes GORM logs to zap. Bound query parameters are never
// logged so password digests stay out of the logs.
type GormLogger struct {
	log   *zap.Logger
	slow  time.Duration
	level gormlogger.LogLevel
}

// NewGormLogger creates a GORM logger from the application log level.
// debug and info log every statement; anything unknown logs warnings.
func NewGormLogger(l *zap.Logger, slowQuerySeconds float64, logLevel string) *GormLogger {
	level := gormlogger.Warn
	switch logLevel {
	case "silent":
		level = gormlogger.Silent
	case "error":
		level = gormlogger.Error
	case "info", "debug":
		level = gormlogger.Info
	}

	return &GormLogger{
		log:   l.WithOptions(zap.AddCallerSkip(3)),
		slow:  time.Duration(slowQuerySeconds * float64(time.Second)),
		level: level,
	}
}

// LogMode implements gormlogger.Interface
func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (g *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if g.level >= gormlogger.Info {
		WithContext(ctx, g.log).Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (g *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if g.level >= gormlogger.Warn {
		WithContext(ctx, g.log).Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (g *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if g.level >= gormlogger.Error {
		WithContext(ctx, g.log).Sugar().Errorf(msg, data...)
	}
}

// ParamsFilter drops bound values so only placeholders reach the log
func (g *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...any) (string, []any) {
	return sql, nil
}

// Trace implements gormlogger.Interface
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	if len(sql) > maxSQLLength {
		sql = sql[:maxSQLLength] + "..."
	}

	l := WithContext(ctx, g.log).With(
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)

	switch {
	// a missing row is the normal answer to an unknown-email lookup
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.Error("gorm query error", zap.Error(err))
	case g.slow > 0 && elapsed > g.slow && g.level >= gormlogger.Warn:
		l.Warn("gorm slow query", zap.Duration("threshold", g.slow))
	case g.level >= gormlogger.Info:
		l.Debug("gorm query")
	}
}
