package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freight-dispatch/internal/config"
	"freight-dispatch/internal/dedup"
	"freight-dispatch/internal/dispatch"
	"freight-dispatch/internal/httpapi"
	"freight-dispatch/internal/schedule"
	"freight-dispatch/internal/tms"
	"freight-dispatch/internal/webhook"
	"freight-dispatch/pkg/logger"
	"freight-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Redis is optional: without it the service still dispatches, but
	// dedup, token caching and the cross-instance run lock are off.
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{URL: cfg.Redis.URL})
		if err != nil {
			log.Warn("redis unavailable, deduplication disabled", "err", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	} else {
		log.Warn("REDIS_URL not set, deduplication disabled")
	}

	var store dedup.Store
	if rdb != nil {
		store = dedup.NewRedisStore(rdb)
	}
	gate := dedup.NewGate(store, cfg.Sync.DedupTTL, log)

	classifier := schedule.NewClassifier(cfg.Sync.OvernightStartHour, cfg.Sync.OvernightEndHour)
	engine := dispatch.NewEngine(dispatch.SettingsFromConfig(cfg.Sync), gate, classifier, log)

	syncer := &dispatch.Syncer{
		API:      tms.NewClient(cfg.TMS, rdb, log),
		Sender:   webhook.NewClient(cfg.Webhook.URL, cfg.Webhook.Timeout, log),
		Engine:   engine,
		Gate:     gate,
		PageSize: cfg.Sync.PageSize,
		MaxPages: cfg.Sync.MaxPages,
		Log:      log,
		Now:      time.Now,
	}

	runner := &httpapi.Runner{Sync: syncer.Run, RDB: rdb, Log: log}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, httpapi.Handlers{Runner: runner}, cfg.App.APISecretKey)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
