// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-search-server/internal/domain"
)

// QueryLogStats returns the total number of history rows and the greatest
// CreatedAt among them. When the history is empty, count is 0 and latest is
// nil.
func QueryLogStats(ctx context.Context, db *gorm.DB) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.QueryLog{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
