package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/JonMunkholm/catalog/internal/remote"
	"github.com/JonMunkholm/catalog/internal/storage"
	"github.com/JonMunkholm/catalog/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Backend,
		"import_max_file_size", cfg.Import.MaxFileSize,
		"remote_enabled", cfg.Remote.Enabled(),
	)

	ctx := context.Background()

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	store, err := core.NewStore(ctx, backend)
	if err != nil {
		slog.Error("failed to load product store", "error", err)
		os.Exit(1)
	}
	slog.Info("product store loaded", "products", store.Count())

	limiter := core.NewImportLimiter(core.DefaultImportSlots, cfg.Import.MaxWaitTime)

	// A nil *remote.Client must not reach the interface.
	var rem web.Remote
	if cfg.Remote.Enabled() {
		rem = remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Resource, cfg.Remote.Timeout)
		slog.Info("remote system of record enabled", "base_url", cfg.Remote.BaseURL, "resource", cfg.Remote.Resource)
	}

	server := web.NewServer(store, limiter, rem, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let an in-flight import finish its write
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// openBackend builds the configured storage backend and its cleanup func.
func openBackend(ctx context.Context, cfg *config.Config) (storage.Backend, func(), error) {
	kind, err := storage.ParseKind(cfg.Storage.Backend)
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case storage.KindMemory:
		slog.Warn("using in-memory storage, data is lost on restart")
		return storage.NewMemoryBackend(), func() {}, nil

	case storage.KindFile:
		b, err := storage.NewFileBackend(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		return b, func() {}, nil

	default:
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		b := storage.NewPostgresBackend(pool)
		if err := b.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return b, pool.Close, nil
	}
}

func openPool(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database URL")
	}

	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MinConns = int32(db.MinConns)
	poolConfig.MaxConnLifetime = db.MaxConnLifetime
	poolConfig.MaxConnIdleTime = db.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	if u, err := url.Parse(db.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}
