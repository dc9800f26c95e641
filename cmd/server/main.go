package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohits-web03/sharedrive/internal/api"
	"github.com/rohits-web03/sharedrive/internal/api/handlers"
	"github.com/rohits-web03/sharedrive/internal/api/services"
	"github.com/rohits-web03/sharedrive/internal/cache"
	"github.com/rohits-web03/sharedrive/internal/config"
	"github.com/rohits-web03/sharedrive/internal/drive"
	"github.com/rohits-web03/sharedrive/internal/logger"
	"github.com/rohits-web03/sharedrive/internal/repositories"
	"go.uber.org/zap"
)

// @title ShareDrive API
// @version 1.0
// @description Folders, files and sharing with per-user access control.
// @host localhost:8080
// @BasePath /
func main() {
	cfg := config.Envs

	log, err := logger.New(cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	if cfg.EnvFileLoaded {
		log.Info("loaded env file", zap.String("path", cfg.EnvFile))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.ConnectDatabase(cfg.DB_URL, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	store := repositories.NewGormStore(db)

	var c cache.Cache = cache.NewMemoryCache()
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCacheFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		c = rc
		log.Info("using redis cache")
	} else {
		log.Info("REDIS_URL not set, using in-memory cache")
	}

	opts := drive.Options{
		Cache:    c,
		Logger:   log,
		CacheTTL: cfg.CacheTTL,
	}
	if cfg.R2.BucketName != "" {
		opts.Objects = repositories.NewR2Store(cfg.R2)
	} else {
		log.Warn("R2 bucket not configured, upload and download URLs are disabled")
	}
	svc := drive.NewService(store, opts)

	router := api.SetupRouter(api.RouterConfig{
		Auth: handlers.NewAuthHandler(store, handlers.AuthConfig{
			JWTSecret:   cfg.JWTSecret,
			FrontendURL: cfg.FrontendURL,
			Production:  cfg.IsProduction(),
			OAuth:       services.NewGoogleOAuthConfig(cfg.Google),
		}, log),
		Drive:     handlers.NewDriveHandler(svc, log),
		Health:    handlers.Health(sqlDB.PingContext, log),
		JWTSecret: cfg.JWTSecret,
		Cors:      cfg.CorsConfig,
		Logger:    log,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
		// Timeouts prevent resource exhaustion from slow clients
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("starting ShareDrive server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
