package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meetup-planner/app/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Options tunes how connections are opened. The zero value logs nothing.
type Options struct {
	LogLevel gormlogger.LogLevel
}

// OptionsFor returns connection options for an APP_ENV value.
func OptionsFor(appEnv string) Options {
	if appEnv == "development" || appEnv == "test" {
		return Options{LogLevel: gormlogger.Warn}
	}
	return Options{LogLevel: gormlogger.Silent}
}

func (o Options) gormConfig() *gorm.Config {
	level := o.LogLevel
	if level == 0 {
		level = gormlogger.Silent
	}
	return &gorm.Config{
		Logger:         zapLogger{zap: logger.Named("gorm"), level: level},
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}
}

// Open connects to the store named by databaseURL: postgres and postgresql
// URLs go through pgx, sqlite URLs open a local file.
func Open(ctx context.Context, databaseURL string, opts Options) (*gorm.DB, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgresql://"), strings.HasPrefix(databaseURL, "postgres://"):
		return OpenPostgres(ctx, databaseURL, opts)
	case strings.HasPrefix(databaseURL, "sqlite:"):
		return OpenSQLite(ctx, SQLitePath(databaseURL), opts)
	default:
		return nil, fmt.Errorf("unsupported database url %q", databaseURL)
	}
}

// Ping checks that the underlying connection pool is reachable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type zapLogger struct {
	zap   *zap.Logger
	level gormlogger.LogLevel
}

func (l zapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface { l.level = level; return l }
func (l zapLogger) Info(ctx context.Context, s string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.zap.Sugar().Infof(s, args...)
	}
}
func (l zapLogger) Warn(ctx context.Context, s string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.zap.Sugar().Warnf(s, args...)
	}
}
func (l zapLogger) Error(ctx context.Context, s string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.zap.Sugar().Errorf(s, args...)
	}
}
func (l zapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == gormlogger.Silent {
		return
	}
	sql, rows := fc()
	dur := time.Since(begin)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, gorm.ErrDuplicatedKey) {
		l.zap.Error("gorm query error", zap.Duration("duration", dur), zap.Int64("rows", rows), zap.String("sql", sql), zap.Error(err))
		return
	}
	l.zap.Debug("gorm query", zap.Duration("duration", dur), zap.Int64("rows", rows), zap.String("sql", sql))
}
