package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/task-manager-api/internal/auth"
	"github.com/ayush/task-manager-api/internal/config"
	"github.com/ayush/task-manager-api/internal/logging"
	"github.com/ayush/task-manager-api/internal/media"
	"github.com/ayush/task-manager-api/internal/server"
	"github.com/ayush/task-manager-api/internal/store"
	"github.com/ayush/task-manager-api/internal/tasks"
	"github.com/ayush/task-manager-api/internal/users"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	// ── Store ────────────────────────────────────────────────
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Error("close store", "error", err)
		}
	}()

	// ── Redis (login throttle) ───────────────────────────────
	var limiter users.AttemptLimiter
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer rdb.Close()
		limiter = auth.NewLoginLimiter(rdb, auth.DefaultLoginAttempts, auth.DefaultLoginWindow)
	} else {
		logger.Warn("REDIS_ADDR not set, login throttling disabled")
	}

	// ── Upload sink ──────────────────────────────────────────
	files, err := openFileStore(ctx, cfg)
	if err != nil {
		return err
	}

	// ── Services ─────────────────────────────────────────────
	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		return err
	}
	creds, err := auth.NewService(st, issuer)
	if err != nil {
		return err
	}
	userService := users.NewService(st, st)
	taskService := tasks.NewService(st)

	// ── Router ───────────────────────────────────────────────
	handler := server.NewRouter(server.Deps{
		Logger:      logger,
		Verifier:    creds,
		Users:       users.NewHandler(userService, creds, limiter),
		Tasks:       tasks.NewHandler(taskService),
		Uploads:     media.NewUploadHandler(files),
		CORSOrigins: cfg.CORSOrigins,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		pgStore := store.NewPostgresStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return pgStore, nil

	case config.DriverMemory:
		slog.Warn("using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil

	default:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		mongoStore := store.NewMongoStore(client.Database(cfg.MongoDB))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			client.Disconnect(ctx)
			return nil, err
		}
		return mongoStore, nil
	}
}

func openFileStore(ctx context.Context, cfg *config.Config) (media.FileStore, error) {
	if cfg.MinioEndpoint == "" {
		slog.Info("MINIO_ENDPOINT not set, storing uploads on disk", "dir", cfg.UploadDir)
		disk, err := store.NewDiskStore(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		return disk, nil
	}
	minioStore, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		return nil, fmt.Errorf("minio connect: %w", err)
	}
	return minioStore, nil
}
