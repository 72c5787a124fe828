// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the QueryLog
// model, the server's search history.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They hold
// no business logic, only persistence and query composition.
//
// Functions:
//
//   - CreateQueryLog(ctx, db, entry) -> *domain.QueryLog, error
//     Inserts a history row with a UUID primary key and UTC timestamp.
//
//   - CountQueryLogs(ctx, db) -> (int64, error)
//     Returns the number of recorded searches.
//
//   - ListQueryLogsPage(ctx, db, offset, limit) -> []domain.QueryLog, error
//     Returns a page of history, most recent first.
//
//   - TopQueries(ctx, db, limit) -> []domain.QueryCount, error
//     Returns the most frequent query texts.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-search-server/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateQueryLog inserts entry, assigning ID and CreatedAt when unset.
func CreateQueryLog(ctx context.Context, db *gorm.DB, entry domain.QueryLog) (*domain.QueryLog, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// CountQueryLogs returns the total number of recorded searches.
func CountQueryLogs(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.QueryLog{}).
		Count(&total).Error
	return total, err
}

// ListQueryLogsPage returns a page of the history ordered by creation time
// descending. Use CountQueryLogs to obtain the total for pagination metadata.
func ListQueryLogsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.QueryLog, error) {
	var out []domain.QueryLog
	err := db.WithContext(ctx).
		Order("created_at desc").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// TopQueries returns up to limit query texts ordered by how often they were
// searched (ties by text ascending), each with the time it was last seen.
func TopQueries(ctx context.Context, db *gorm.DB, limit int) ([]domain.QueryCount, error) {
	var rows []struct {
		Query string
		Count int64
	}
	err := db.WithContext(ctx).
		Model(&domain.QueryLog{}).
		Select("query, COUNT(*) AS count").
		Group("query").
		Order("count DESC").
		Order("query ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.QueryCount, 0, len(rows))
	for _, r := range rows {
		// latest created_at per query (avoid MAX() -> TEXT in SQLite)
		var last struct {
			CreatedAt time.Time
		}
		err := db.WithContext(ctx).
			Model(&domain.QueryLog{}).
			Select("created_at").
			Where("query = ?", r.Query).
			Order("created_at DESC").
			Limit(1).
			Scan(&last).Error
		if err != nil {
			return nil, err
		}
		out = append(out, domain.QueryCount{Query: r.Query, Count: r.Count, LastSeen: last.CreatedAt})
	}
	return out, nil
}
