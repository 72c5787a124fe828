package services

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/tbourn/go-search-server/internal/domain"
)

// ----- Fake repo -----

type fakeQueryLogRepo struct {
	mu sync.Mutex

	created   []domain.QueryLog
	createErr error

	countTotal int64
	countErr   error

	pageOffset int
	pageLimit  int
	pageItems  []domain.QueryLog
	pageErr    error

	topLimit int
	topItems []domain.QueryCount
	topErr   error
}

func (r *fakeQueryLogRepo) CreateQueryLog(ctx context.Context, db *gorm.DB, entry domain.QueryLog) (*domain.QueryLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.created = append(r.created, entry)
	return &entry, nil
}

func (r *fakeQueryLogRepo) CountQueryLogs(ctx context.Context, db *gorm.DB) (int64, error) {
	return r.countTotal, r.countErr
}

func (r *fakeQueryLogRepo) ListQueryLogsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.QueryLog, error) {
	r.pageOffset, r.pageLimit = offset, limit
	return r.pageItems, r.pageErr
}

func (r *fakeQueryLogRepo) TopQueries(ctx context.Context, db *gorm.DB, limit int) ([]domain.QueryCount, error) {
	r.topLimit = limit
	return r.topItems, r.topErr
}

func (r *fakeQueryLogRepo) entries() []domain.QueryLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.QueryLog(nil), r.created...)
}

var errBoom = errors.New("boom")
