package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"bookshelf/internal/book"
	"bookshelf/internal/cover"
	"bookshelf/internal/dashboard"
	"bookshelf/internal/platform/config"
	"bookshelf/internal/platform/logger"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/platform/redisx"
	"bookshelf/internal/platform/telemetry"
	"bookshelf/internal/recommend"
	"bookshelf/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		log.Fatalf("cannot create logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("api stopped", logger.Error(err))
	}
}

func run(cfg *config.Config, lg logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			lg.Warn("tracing shutdown failed", logger.Error(err))
		}
	}()

	pool, err := openDB(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()
	lg.Info("database connection OK", logger.String("dsn", config.RedactDSN(cfg.DBDSN)))

	repo := book.NewPostgresRepo(pool, cfg.DBTimeout)
	books := book.NewService(repo)

	deps := server.Deps{
		DB:        repo,
		Books:     book.NewHTTPHandler(books, lg),
		Dashboard: dashboard.NewHandler(books, lg),
	}

	if cfg.EnableRecommendations {
		rdb := connectRedis(ctx, cfg, lg)
		if rdb != nil {
			defer rdb.Close()
		}
		deps.Recommend = recommend.NewHTTPHandler(newRecommender(cfg, rdb, lg), books, lg)
	}

	bucket, err := cover.NewLocalBucket(cfg.CoversDir)
	if err != nil {
		return err
	}
	deps.Covers = cover.NewHTTPHandler(cover.NewStore(bucket, cfg.CoversMaxBytes, cfg.CoversPublicBaseURL), lg)

	srv := server.New(cfg, lg, deps)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	lg.Info("api started",
		logger.String("addr", cfg.Addr),
		logger.String("base_path", cfg.BasePath),
		logger.Bool("auth", cfg.AuthEnabled()),
		logger.Bool("llm", cfg.LLMEnabled()),
		logger.Bool("dashboard", cfg.EnableDashboard),
		logger.Bool("recommendations", cfg.EnableRecommendations))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", config.RedactDSN(dsn), err)
	}
	return pool, nil
}

// connectRedis returns nil when no cache is configured or it cannot be
// reached; covers are then looked up on every request.
func connectRedis(ctx context.Context, cfg *config.Config, lg logger.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb, err := redisx.Connect(ctx, redisx.DefaultOptions(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), lg)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			lg.Warn("cover cache disabled", logger.Error(err))
		}
		return nil
	}
	return rdb
}

func newRecommender(cfg *config.Config, rdb *redis.Client, lg logger.Logger) *recommend.Service {
	var gen recommend.Generator
	if cfg.LLMEnabled() {
		gen = recommend.NewChatGenerator(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	}

	var covers recommend.CoverFinder = openlibrary.NewClient(cfg.OpenLibraryUserAgent, cfg.OpenLibraryRPS, 2)
	if rdb != nil {
		covers = recommend.WithCache(covers, recommend.NewRedisCoverCache(rdb, cfg.CoverCacheTTL))
	}
	return recommend.NewService(gen, covers, nil, lg)
}
