package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-search-server/internal/domain"
)

// ErrDuplicate is returned when (client_id, scope, key) is already recorded.
var ErrDuplicate = errors.New("duplicate")

// live restricts a query to the unexpired record for one client, route and key.
func live(db *gorm.DB, clientID, scope, key string, now time.Time) *gorm.DB {
	return db.Where("client_id = ? AND scope = ? AND key = ? AND expires_at > ?", clientID, scope, key, now)
}

// GetIdempotency returns the unexpired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, clientID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(scope) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := live(db.WithContext(ctx), clientID, scope, key, now).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// HasIdempotency reports whether an unexpired record exists without loading it.
func HasIdempotency(ctx context.Context, db *gorm.DB, clientID, scope, key string, now time.Time) (bool, error) {
	if strings.TrimSpace(scope) == "" {
		return false, nil
	}
	var n int64
	err := live(db.WithContext(ctx).Model(&domain.Idempotency{}), clientID, scope, key, now).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

// CreateIdempotency stores rec under its (client_id, scope, key). ID and
// timestamps are assigned here; the record expires ttl from now.
func CreateIdempotency(ctx context.Context, db *gorm.DB, rec domain.Idempotency, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	rec.ExpiresAt = now.Add(ttl)
	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &rec, nil
}

// PurgeExpiredIdempotency deletes records whose TTL elapsed before now and
// reports how many were removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

// isUniqueViolation matches gorm's translated error as well as the plain-text
// message glebarez/sqlite returns when TranslateError is off.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
