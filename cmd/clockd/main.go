package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appcfg "github.com/park285/Cheese-ChessClock/internal/config"
	"github.com/park285/Cheese-ChessClock/internal/httpapi"
	"github.com/park285/Cheese-ChessClock/internal/kv"
	"github.com/park285/Cheese-ChessClock/internal/match"
	"github.com/park285/Cheese-ChessClock/internal/msgcat"
	"github.com/park285/Cheese-ChessClock/internal/obslog"
	"github.com/park285/Cheese-ChessClock/internal/presetbook"
)

func main() {
	if err := appcfg.LoadDotenv(); err != nil {
		log.Fatalf("dotenv: %v", err)
	}
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, storeName, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("store_open_failed", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	lib, err := presetbook.Open(ctx, store,
		presetbook.WithCatalogFile(cfg.PresetCatalog),
		presetbook.WithPlayerCount(cfg.DefaultPlayerCount),
	)
	if err != nil {
		logger.Fatal("presetbook_open_failed", zap.Error(err))
	}

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("messages_load_failed", zap.Error(err))
	}

	regOpts := []match.RegistryOption{
		match.WithCapacity(cfg.MaxActiveMatches),
		match.WithTTL(cfg.MatchTTL),
		match.WithTickInterval(cfg.TickInterval),
		match.WithMetrics(match.NewMetrics(nil)),
	}
	if cfg.DatabaseURL != "" {
		repo, err := match.NewRepository(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database_open_failed", zap.Error(err))
		}
		defer func() { _ = repo.Close() }()
		if err := repo.Migrate(ctx); err != nil {
			logger.Fatal("database_migrate_failed", zap.Error(err))
		}
		regOpts = append(regOpts, match.WithResultSink(repo))
	} else {
		logger.Info("database_disabled", zap.String("reason", "DATABASE_URL not set"))
	}
	reg := match.NewRegistry(regOpts...)
	go func() {
		if err := reg.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("tick_loop_stopped", zap.Error(err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	api := httpapi.New(httpapi.Deps{
		Library:     lib,
		Registry:    reg,
		Messages:    msgs,
		PlayerCount: cfg.DefaultPlayerCount,
		StoreName:   storeName,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server_started", zap.String("addr", cfg.HTTPAddr), zap.String("store", storeName))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen_failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown_error", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *appcfg.AppConfig) (kv.Store, string, error) {
	if cfg.RedisURL == "" {
		obslog.L().Info("store_memory", zap.String("reason", "REDIS_URL not set"))
		return kv.NewMemoryStore(), "memory", nil
	}
	s, err := kv.DialRedis(ctx, cfg.RedisURL, cfg.RedisNamespace)
	if err != nil {
		return nil, "", err
	}
	return s, "redis", nil
}
