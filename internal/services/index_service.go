// Package services – IndexService
//
// IndexService owns the process-wide search engine. The engine itself is not
// safe for concurrent use, so every mutation takes the write lock and every
// query the read lock. Identical searches that arrive while one is already
// running share its result through singleflight.
//
// Successful HTTP searches are appended to the query history when enabled;
// history writes are best effort and never fail a search.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/tbourn/go-search-server/internal/domain"
	"github.com/tbourn/go-search-server/internal/search"
)

// FilterPredicate labels history rows produced by predicate searches.
const FilterPredicate = "predicate"

// QueryLogRepo defines the repository contract for the query history.
type QueryLogRepo interface {
	// CreateQueryLog appends one executed search.
	CreateQueryLog(ctx context.Context, db *gorm.DB, entry domain.QueryLog) (*domain.QueryLog, error)

	// CountQueryLogs returns the number of recorded searches.
	CountQueryLogs(ctx context.Context, db *gorm.DB) (int64, error)

	// ListQueryLogsPage returns a page of history, most recent first.
	ListQueryLogsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.QueryLog, error)

	// TopQueries returns the most frequently searched query texts.
	TopQueries(ctx context.Context, db *gorm.DB, limit int) ([]domain.QueryCount, error)
}

// SearchRequest selects documents for a query. With only Status set (or
// nothing, meaning ACTUAL) the status form of the engine is used; any of
// MinRating, MaxRating or IDs switches to a predicate that also requires the
// status.
type SearchRequest struct {
	Query     string
	Status    *search.Status
	MinRating *int
	MaxRating *int
	IDs       []int
}

func (r SearchRequest) status() search.Status {
	if r.Status == nil {
		return search.StatusActual
	}
	return *r.Status
}

func (r SearchRequest) isPredicate() bool {
	return r.MinRating != nil || r.MaxRating != nil || len(r.IDs) > 0
}

func (r SearchRequest) filterLabel() string {
	if r.isPredicate() {
		return FilterPredicate
	}
	return r.status().String()
}

// filter builds the engine predicate for this request.
func (r SearchRequest) filter() search.Filter {
	want := r.status()
	var ids map[int]struct{}
	if len(r.IDs) > 0 {
		ids = make(map[int]struct{}, len(r.IDs))
		for _, id := range r.IDs {
			ids[id] = struct{}{}
		}
	}
	minR, maxR := r.MinRating, r.MaxRating
	return func(id int, status search.Status, rating int) bool {
		if status != want {
			return false
		}
		if minR != nil && rating < *minR {
			return false
		}
		if maxR != nil && rating > *maxR {
			return false
		}
		if ids != nil {
			if _, ok := ids[id]; !ok {
				return false
			}
		}
		return true
	}
}

// key identifies equivalent requests for singleflight.
func (r SearchRequest) key() string {
	var b strings.Builder
	b.WriteString(r.status().String())
	b.WriteByte(0)
	if r.MinRating != nil {
		b.WriteString(strconv.Itoa(*r.MinRating))
	}
	b.WriteByte(0)
	if r.MaxRating != nil {
		b.WriteString(strconv.Itoa(*r.MaxRating))
	}
	b.WriteByte(0)
	ids := append([]int(nil), r.IDs...)
	sort.Ints(ids)
	for _, id := range ids {
		b.WriteString(strconv.Itoa(id))
		b.WriteByte(',')
	}
	b.WriteByte(0)
	b.WriteString(r.Query)
	return b.String()
}

// AddDocumentInput is a document to be indexed.
type AddDocumentInput struct {
	ID      int
	Content string
	Status  search.Status
	Ratings []int
}

// IndexService serializes access to a search.Engine and records searches.
type IndexService struct {
	// DB is the GORM handle used for the query history. Nil disables history.
	DB *gorm.DB
	// Repo persists the query history.
	Repo QueryLogRepo

	// MaxContentRunes caps document length; 0 disables the check.
	MaxContentRunes int
	// QueryLogEnabled turns history recording on.
	QueryLogEnabled bool

	mu     sync.RWMutex
	engine *search.Engine
	flight singleflight.Group
}

// NewIndexService wraps engine. History is recorded when db and r are both
// non-nil.
func NewIndexService(engine *search.Engine, db *gorm.DB, r QueryLogRepo) *IndexService {
	if engine == nil {
		engine = search.New()
	}
	return &IndexService{
		DB:              db,
		Repo:            r,
		QueryLogEnabled: db != nil && r != nil,
		engine:          engine,
	}
}

// AddDocument indexes in and returns the stored document together with the
// new document count. Engine validation errors are returned unchanged.
func (s *IndexService) AddDocument(ctx context.Context, in AddDocumentInput) (search.DocumentInfo, int, error) {
	_, span := otel.Tracer("services/IndexService").Start(ctx, "AddDocument",
		trace.WithAttributes(
			attribute.Int("document.id", in.ID),
			attribute.String("document.status", in.Status.String()),
		),
	)
	defer span.End()

	if s.MaxContentRunes > 0 && utf8.RuneCountInString(in.Content) > s.MaxContentRunes {
		span.SetStatus(codes.Error, ErrContentTooLong.Error())
		return search.DocumentInfo{}, 0, ErrContentTooLong
	}

	s.mu.Lock()
	err := s.engine.AddDocument(in.ID, in.Content, in.Status, in.Ratings)
	var (
		info  search.DocumentInfo
		count int
	)
	if err == nil {
		info, err = s.engine.Document(in.ID)
		count = s.engine.DocumentCount()
	}
	s.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return search.DocumentInfo{}, 0, err
	}

	docsIndexed.WithLabelValues(in.Status.String()).Inc()
	docsGauge.Set(float64(count))
	span.SetAttributes(attribute.Int("documents.count", count))
	return info, count, nil
}

// LoadCorpus indexes docs in order under a single write lock. It stops at the
// first invalid document and reports how many were indexed before it.
func (s *IndexService) LoadCorpus(ctx context.Context, docs []search.SeedDocument) (int, error) {
	_, span := otel.Tracer("services/IndexService").Start(ctx, "LoadCorpus",
		trace.WithAttributes(attribute.Int("corpus.size", len(docs))),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	for _, d := range docs {
		if s.MaxContentRunes > 0 && utf8.RuneCountInString(d.Content) > s.MaxContentRunes {
			return loaded, fmt.Errorf("document %d: %w", d.ID, ErrContentTooLong)
		}
		if err := s.engine.AddDocument(d.ID, d.Content, d.Status, d.Ratings); err != nil {
			span.RecordError(err)
			return loaded, fmt.Errorf("document %d: %w", d.ID, err)
		}
		docsIndexed.WithLabelValues(d.Status.String()).Inc()
		loaded++
	}
	docsGauge.Set(float64(s.engine.DocumentCount()))
	log.Info().Int("documents", loaded).Msg("corpus loaded")
	return loaded, nil
}

// Search ranks documents for req. The returned slice belongs to the caller.
func (s *IndexService) Search(ctx context.Context, req SearchRequest) ([]search.Result, error) {
	ctx, span := otel.Tracer("services/IndexService").Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("query", req.Query),
			attribute.String("filter", req.filterLabel()),
		),
	)
	defer span.End()

	if req.MinRating != nil && req.MaxRating != nil && *req.MinRating > *req.MaxRating {
		searchQueries.WithLabelValues(outcomeMalformed).Inc()
		return nil, ErrInvalidRatingRange
	}

	start := time.Now()
	v, err, shared := s.flight.Do(req.key(), func() (any, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if req.isPredicate() {
			return s.engine.FindTopDocumentsWith(req.Query, req.filter())
		}
		return s.engine.FindTopDocumentsByStatus(req.Query, req.status())
	})
	elapsed := time.Since(start)
	searchLatency.Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Bool("search.shared", shared))

	if err != nil {
		span.RecordError(err)
		if errors.Is(err, search.ErrMalformedQuery) {
			searchQueries.WithLabelValues(outcomeMalformed).Inc()
		} else {
			searchQueries.WithLabelValues(outcomeError).Inc()
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	results := append([]search.Result(nil), v.([]search.Result)...)
	if results == nil {
		results = []search.Result{}
	}
	searchResults.Observe(float64(len(results)))
	if len(results) == 0 {
		searchQueries.WithLabelValues(outcomeEmpty).Inc()
	} else {
		searchQueries.WithLabelValues(outcomeOK).Inc()
	}
	span.SetAttributes(attribute.Int("search.results", len(results)))

	s.record(ctx, req, results, elapsed)
	return results, nil
}

// record appends a history row; failures are logged and swallowed.
func (s *IndexService) record(ctx context.Context, req SearchRequest, results []search.Result, elapsed time.Duration) {
	if !s.QueryLogEnabled || s.DB == nil || s.Repo == nil {
		return
	}
	entry := domain.QueryLog{
		Query:          req.Query,
		Filter:         req.filterLabel(),
		Results:        len(results),
		DurationMicros: elapsed.Microseconds(),
	}
	if len(results) > 0 {
		top := results[0].ID
		entry.TopDocumentID = &top
	}
	if _, err := s.Repo.CreateQueryLog(ctx, s.DB, entry); err != nil {
		log.Warn().Err(err).Str("query", req.Query).Msg("query history write failed")
	}
}

// Match reports which plus words of query occur in document id.
func (s *IndexService) Match(ctx context.Context, query string, id int) ([]string, search.Status, error) {
	_, span := otel.Tracer("services/IndexService").Start(ctx, "Match",
		trace.WithAttributes(
			attribute.String("query", query),
			attribute.Int("document.id", id),
		),
	)
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	words, status, err := s.engine.MatchDocument(query, id)
	if err != nil {
		span.RecordError(err)
	}
	return words, status, err
}

// Document returns the stored metadata of document id.
func (s *IndexService) Document(ctx context.Context, id int) (search.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Document(id)
}

// Count returns the number of indexed documents.
func (s *IndexService) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.DocumentCount()
}

// SetStopWords replaces the stop-word set; empty text clears it. Already
// indexed documents keep their words.
func (s *IndexService) SetStopWords(ctx context.Context, text string) {
	_, span := otel.Tracer("services/IndexService").Start(ctx, "SetStopWords")
	defer span.End()

	s.mu.Lock()
	s.engine.ReplaceStopWords(text)
	n := len(s.engine.StopWords())
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("stop_words.count", n))
	log.Info().Int("stop_words", n).Msg("stop words replaced")
}

// StopWords returns the current stop words in sorted order.
func (s *IndexService) StopWords(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.StopWords()
}
