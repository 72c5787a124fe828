// Package repo persists the query history and idempotency records with GORM
// on SQLite (pure Go driver). Functions take the *gorm.DB explicitly so the
// services can share one handle.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/tbourn/go-search-server/internal/domain"
)

const slowQueryThreshold = 200 * time.Millisecond

// pragmas tune SQLite for a single writer (history inserts) and many readers.
var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA foreign_keys=ON;",
	"PRAGMA busy_timeout=5000;",
}

// OpenSQLite opens (or creates) the database at path, which may also be a
// "file:" DSN or ":memory:". Statements are logged through zerolog.
func OpenSQLite(path string) (*gorm.DB, error) {
	if isFilePath(path) {
		// sqlite reports a missing directory as "out of memory (14)"
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: newGormLogger(slowQueryThreshold),
	})
	if err != nil {
		return nil, err
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", strings.TrimSuffix(p, ";"), err)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// AutoMigrate creates or updates the query history and idempotency tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.QueryLog{},
		&domain.Idempotency{},
	)
}

func isFilePath(path string) bool {
	return path != ":memory:" && !strings.HasPrefix(path, "file:")
}
