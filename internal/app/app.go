// Package app wires configuration, storage, caching and the HTTP server
// into a running short link service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shortlink/internal/analytics"
	"github.com/vadimbarashkov/shortlink/internal/cache"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/urlcheck"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"github.com/vadimbarashkov/shortlink/pkg/postgres"
	"github.com/vadimbarashkov/shortlink/pkg/redis"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
	pgrepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/postgres"
	redisrepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/redis"
)

const shutdownTimeout = 10 * time.Second

type shortLinkStore interface {
	Create(ctx context.Context, shortID, redirectURL string) (*entity.ShortLink, error)
	FindByURL(ctx context.Context, redirectURL string) (*entity.ShortLink, error)
	FindByShortID(ctx context.Context, shortID string) (*entity.ShortLink, error)
	FindAndAppendVisit(ctx context.Context, shortID string, visit entity.Visit) (*entity.ShortLink, error)
}

// NewLogger builds the service logger from cfg.
func NewLogger(cfg config.Logger) *httplog.Logger {
	return httplog.NewLogger("shortlink", httplog.Options{
		LogLevel:        cfg.SlogLevel(),
		JSON:            cfg.JSON,
		Concise:         cfg.Concise,
		RequestHeaders:  true,
		TimeFieldFormat: time.RFC3339,
	})
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := NewLogger(cfg.Logger)

	store, closeStore, err := openStore(ctx, cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeStore()

	redirects := cache.New(
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithEvictionPeriod(cfg.Cache.EvictionPeriod),
		cache.WithLogger(logger.Logger),
	)

	recorder := analytics.New(store, logger.Logger,
		analytics.WithConcurrency(cfg.Analytics.Concurrency),
		analytics.WithTimeout(cfg.Analytics.Timeout),
	)
	defer recorder.Close()

	uc := usecase.New(
		usecase.Config{
			ShortIDLength:    cfg.ShortID.Length,
			ShortIDMinLength: cfg.ShortID.MinLength,
			ShortIDMaxLength: cfg.ShortID.MaxLength,
			MaxAttempts:      cfg.ShortID.MaxAttempts,
		},
		store,
		redirects,
		urlcheck.New(cfg.RestrictPrivateHosts(), logger.Logger),
		recorder,
		logger.Logger,
	)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        delivery.NewRouter(logger, uc),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		redirects.Run(ctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting server",
			slog.String("addr", server.Addr),
			slog.String("env", cfg.Env),
			slog.String("storage", cfg.Storage.Driver),
		)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

// openStore connects the configured store and returns it with its close func.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (shortLinkStore, func(), error) {
	const op = "app.openStore"

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.Postgres.DSN(), postgres.Pool{
			ConnMaxIdleTime: cfg.Postgres.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}

		if err := postgres.RunMigrations(cfg.Postgres.DSN()); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}

		return pgrepo.NewShortLinkRepository(db), func() { db.Close() }, nil

	case config.DriverRedis:
		client, err := redis.New(ctx, redis.Options{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PoolSize:     cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}

		return redisrepo.NewShortLinkRepository(client, cfg.Redis.KeyPrefix), func() { client.Close() }, nil

	case config.DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return memory.NewShortLinkRepository(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.Storage.Driver)
	}
}
