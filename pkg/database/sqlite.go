package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenSQLite opens a SQLite database file with foreign keys enforced.
// An in-memory path is pinned to a single connection so every query sees the
// same database.
func OpenSQLite(ctx context.Context, path string, opts Options) (*gorm.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_foreign_keys=1&_busy_timeout=5000"

	db, err := gorm.Open(sqlite.Open(dsn), opts.gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db db() error: %w", err)
	}
	if strings.HasPrefix(path, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// SQLitePath extracts the file path from a sqlite URL. Three slashes name a
// relative path and four an absolute one, so sqlite:///meetups.db is
// "meetups.db" and sqlite:////var/lib/meetups.db is "/var/lib/meetups.db".
func SQLitePath(databaseURL string) string {
	p := strings.TrimPrefix(databaseURL, "sqlite:")
	p = strings.TrimPrefix(p, "//")
	return strings.TrimPrefix(p, "/")
}
