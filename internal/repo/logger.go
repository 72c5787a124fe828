package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// gormLogger sends GORM statement logs to zerolog: failures at error level
// (except record-not-found, which the repo maps to ErrNotFound), statements
// slower than slow at warn, everything else at trace.
type gormLogger struct {
	slow  time.Duration
	level gormlogger.LogLevel
}

func newGormLogger(slow time.Duration) gormlogger.Interface {
	return &gormLogger{slow: slow, level: gormlogger.Warn}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		log.Info().Str("component", "gorm").Msgf(msg, args...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		log.Warn().Str("component", "gorm").Msgf(msg, args...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		log.Error().Str("component", "gorm").Msgf(msg, args...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var ev *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		ev = log.Error().Err(err)
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		ev = log.Warn().Dur("threshold", l.slow)
	case l.level >= gormlogger.Info:
		ev = log.Trace()
	default:
		return
	}
	sql, rows := fc()
	ev.Str("component", "gorm").
		Str("sql", sql).
		Int64("rows", rows).
		Dur("elapsed", elapsed).
		Msg("sql")
}
