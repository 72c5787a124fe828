// Command server runs the search HTTP API.
//
// @title       Search Server API
// @version     1.0
// @description In-memory TF-IDF document search with stop words, minus words and status filters.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-search-server/docs"
	"github.com/tbourn/go-search-server/internal/config"
	httpapi "github.com/tbourn/go-search-server/internal/http"
	"github.com/tbourn/go-search-server/internal/observability"
	"github.com/tbourn/go-search-server/internal/repo"
	"github.com/tbourn/go-search-server/internal/search"
	"github.com/tbourn/go-search-server/internal/services"
	"github.com/tbourn/go-search-server/internal/sysutil"
)

const purgeInterval = 10 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	version := sysutil.Version()
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version, observability.EngineAttributes(cfg.Search)...)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := db.Use(tracing.NewPlugin()); err != nil {
		log.Warn().Err(err).Msg("gorm tracing plugin")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	engine := search.New(
		search.WithStopWords(cfg.Search.StopWords),
		search.WithMaxResults(cfg.Search.MaxResults),
	)
	idx, hist := httpapi.NewServices(engine, db, cfg)
	if err := seedCorpus(ctx, idx, cfg.Search.SeedPath); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Search.SeedPath).Msg("seed corpus")
	}

	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.BasePath = cfg.APIBasePath

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, idx, hist, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Int("documents", idx.Count(gctx)).
			Bool("query_log", idx.QueryLogEnabled).
			Msg("search server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		purgeIdempotency(gctx, db, purgeInterval)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}

// seedCorpus indexes the Markdown corpus at path, if any.
func seedCorpus(ctx context.Context, idx *services.IndexService, path string) error {
	if path == "" {
		return nil
	}
	docs, err := search.ReadCorpusFile(path)
	if err != nil {
		return err
	}
	_, err = idx.LoadCorpus(ctx, docs)
	return err
}

// purgeIdempotency deletes expired idempotency records every interval until
// ctx is done.
func purgeIdempotency(ctx context.Context, db *gorm.DB, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("expired idempotency keys removed")
			}
		}
	}
}
