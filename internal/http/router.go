// Package httpapi assembles the gin engine for the search server: the
// middleware chain, health and metrics endpoints, Swagger UI and the
// versioned document, search, stop-word and query-history routes.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/tbourn/go-search-server/internal/config"
	"github.com/tbourn/go-search-server/internal/domain"
	"github.com/tbourn/go-search-server/internal/http/handlers"
	"github.com/tbourn/go-search-server/internal/http/middleware"
	"github.com/tbourn/go-search-server/internal/observability"
	"github.com/tbourn/go-search-server/internal/repo"
	"github.com/tbourn/go-search-server/internal/search"
	"github.com/tbourn/go-search-server/internal/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// queryLogRepoShim adapts the repository free functions to the
// services.QueryLogRepo interface expected by the index and history services.
type queryLogRepoShim struct{}

// CreateQueryLog proxies repo.CreateQueryLog.
func (queryLogRepoShim) CreateQueryLog(ctx context.Context, db *gorm.DB, entry domain.QueryLog) (*domain.QueryLog, error) {
	return repo.CreateQueryLog(ctx, db, entry)
}

// CountQueryLogs proxies repo.CountQueryLogs (pagination support).
func (queryLogRepoShim) CountQueryLogs(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountQueryLogs(ctx, db)
}

// ListQueryLogsPage proxies repo.ListQueryLogsPage (pagination support).
func (queryLogRepoShim) ListQueryLogsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.QueryLog, error) {
	return repo.ListQueryLogsPage(ctx, db, offset, limit)
}

// TopQueries proxies repo.TopQueries.
func (queryLogRepoShim) TopQueries(ctx context.Context, db *gorm.DB, limit int) ([]domain.QueryCount, error) {
	return repo.TopQueries(ctx, db, limit)
}

// NewServices builds the application services over engine and db. The
// returned IndexService records searches only when cfg.QueryLogEnabled.
func NewServices(engine *search.Engine, db *gorm.DB, cfg config.Config) (*services.IndexService, *services.HistoryService) {
	idx := services.NewIndexService(engine, db, queryLogRepoShim{})
	idx.MaxContentRunes = cfg.Search.MaxContentRunes
	idx.QueryLogEnabled = idx.QueryLogEnabled && cfg.QueryLogEnabled
	hist := &services.HistoryService{DB: db, Repo: queryLogRepoShim{}}
	return idx, hist
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Client identity (X-Client-ID)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per client/IP, bypass on replay)
//  10. Gzip, CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, idx *services.IndexService, hist *services.HistoryService, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName, otelgin.WithFilter(observability.TraceFilter)))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Caller identity for rate limiting and idempotency scoping
	r.Use(middleware.ClientID())

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, clientID, scope, key string, now time.Time) (bool, error) {
			return repo.HasIdempotency(ctx, db, clientID, scope, key, now)
		},
	))

	// 9) Token-bucket rate limiter per client/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientOrIP()).
		Exempt("/health", "/metrics", "/swagger/")
	log.Debug().Stringer("limiter", rl).Msg("rate limiter configured")
	r.Use(rl.Handler())

	// 10) Compress ranked results and history pages
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		Revalidate:   []string{strings.TrimSuffix(cfg.APIBasePath, "/") + "/queries"},
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(idx, hist)
	h.IdempotencyTTL = cfg.IdempotencyTTL

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Documents
		api.POST("/documents", h.AddDocument)
		api.GET("/documents/count", h.DocumentCount)
		api.GET("/documents/:id", h.GetDocument)
		api.GET("/documents/:id/match", h.MatchDocument)

		// Search
		api.GET("/search", h.Search)
		api.POST("/search", h.SearchWithFilter)

		// Stop words
		api.GET("/stop-words", h.GetStopWords)
		api.PUT("/stop-words", h.PutStopWords)

		// History
		api.GET("/queries", h.ListQueries)
		api.GET("/queries/top", h.TopQueries)
	}
}

// limitBody caps request bodies at maxBytes; reads past the cap fail and
// surface as 400 from the JSON binders.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

var (
	corsMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsAllow   = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderClientID, middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed}
)

// corsMiddleware allows every origin when origins is empty, else only the
// listed ones. Allow-Origin is also set on plain (non-preflight) requests that
// gin-contrib/cors would otherwise leave bare.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  corsMethods,
		AllowHeaders:  corsAllow,
		ExposeHeaders: corsExpose,
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		return []gin.HandlerFunc{
			func(c *gin.Context) { c.Header("Access-Control-Allow-Origin", "*") },
			cors.New(cc),
		}
	}

	cc.AllowOrigins = origins
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			origin := c.GetHeader("Origin")
			if _, ok := allowed[origin]; ok && origin != "" {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Add("Vary", "Origin")
			}
		},
		cors.New(cc),
	}
}
