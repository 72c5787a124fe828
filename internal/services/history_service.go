// Package services – HistoryService
//
// HistoryService reads the query history written by IndexService.Search.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-search-server/internal/domain"
	"github.com/tbourn/go-search-server/internal/utils"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

// HistoryService provides paginated and aggregated views of past searches.
type HistoryService struct {
	DB   *gorm.DB
	Repo QueryLogRepo
}

// ListPage returns one page of history (most recent first) and the total.
// It applies defaults for invalid page/pageSize.
func (s *HistoryService) ListPage(ctx context.Context, page, pageSize int) ([]domain.QueryLog, int64, error) {
	ctx, span := otel.Tracer("services/HistoryService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := utils.Offset(page, pageSize)

	total, err := s.Repo.CountQueryLogs(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.QueryLog{}, 0, nil
	}

	items, err := s.Repo.ListQueryLogsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Top returns the most frequent queries. limit defaults to 10 and is capped
// at 100.
func (s *HistoryService) Top(ctx context.Context, limit int) ([]domain.QueryCount, error) {
	ctx, span := otel.Tracer("services/HistoryService").Start(ctx, "Top",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	items, err := s.Repo.TopQueries(ctx, s.DB, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.QueryCount{}
	}
	return items, nil
}
