// Package testutil opens migrated throwaway databases for tests.
package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/meetup-planner/app/internal/migrations"
	"github.com/meetup-planner/app/pkg/database"
	"github.com/meetup-planner/app/pkg/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var initLogger sync.Once

// InitLogger installs a quiet global logger once per test binary.
func InitLogger() {
	initLogger.Do(func() {
		if _, err := logger.Init("error", "json"); err != nil {
			panic(err)
		}
	})
}

// NewDB returns a fully migrated SQLite database that lives in t.TempDir().
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	InitLogger()

	path := filepath.Join(t.TempDir(), "meetups.db")
	db, err := database.OpenSQLite(context.Background(), path, database.Options{})
	require.NoError(t, err)

	_, err = migrations.Run(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
