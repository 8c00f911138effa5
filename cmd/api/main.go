package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"artzip/internal/cache"
	"artzip/internal/config"
	"artzip/internal/database"
	jwtsvc "artzip/internal/pkg/jwt"
	"artzip/internal/pkg/logger"
	"artzip/internal/server"
	"artzip/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, lg.Named("db"))
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	blob, closeBlob, err := photoBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBlob()

	userCache, closeCache := userInfoCache(ctx, cfg, lg)
	defer closeCache()

	deps := server.Deps{
		DB:          db,
		JWT:         jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL),
		Photos:      storage.NewStore(blob),
		Cache:       userCache,
		UserInfoTTL: cfg.UserInfoCacheTTL,
		Log:         lg,
		CORSOrigins: cfg.CORSAllowedOrigins,
	}
	if cfg.PhotoBackend == config.PhotoBackendLocal {
		deps.UploadDir = cfg.UploadDir
		deps.StaticURLBase = cfg.StaticURLBase
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv), zap.String("photos", cfg.PhotoBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func photoBackend(ctx context.Context, cfg *config.Config) (storage.Blob, func(), error) {
	if cfg.PhotoBackend == config.PhotoBackendGCS {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs client: %w", err)
		}
		return storage.NewGCSBlob(client, cfg.GCSBucket), func() { _ = client.Close() }, nil
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return storage.NewLocalBlob(cfg.UploadDir, cfg.StaticURLBase), func() {}, nil
}

// userInfoCache uses Redis when REDIS_ADDR is set and reachable, process
// memory otherwise.
func userInfoCache(ctx context.Context, cfg *config.Config, lg *zap.Logger) (cache.Cache, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		lg.Warn("redis unavailable, using in-memory user info cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rdb.Close()
		return cache.NewMemory(), func() {}
	}
	return cache.NewRedis(rdb, "artzip:"), func() { _ = rdb.Close() }
}
