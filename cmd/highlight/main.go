package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"highlight-bot/internal/analytics"
	"highlight-bot/internal/bot"
	"highlight-bot/internal/config"
	"highlight-bot/internal/modules/console"
	"highlight-bot/internal/modules/highlight"
	"highlight-bot/internal/storage"
	"highlight-bot/internal/timers"
	"highlight-bot/internal/wordcache"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	words, err := store.AllWords(ctx)
	if err != nil {
		logger.Fatal("loading words failed", zap.Error(err))
	}
	cache := wordcache.New()
	cache.Load(words)
	logger.Info("word cache loaded", zap.Int("words", cache.Len()))

	scheduler := timers.New(store, time.Duration(cfg.Timers.PollIntervalSeconds)*time.Second, logger)
	batch := highlight.NewBatch(store, time.Duration(cfg.Highlight.FlushIntervalSeconds)*time.Second, logger)
	consoleLogger := console.NewLogger(logger)
	analyticsService := analytics.New(store)

	botSvc, err := bot.New(cfg, logger, store, cache, scheduler, batch, analyticsService, consoleLogger, stop)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return scheduler.Run(groupCtx)
	})
	group.Go(func() error {
		return batch.Run(groupCtx)
	})

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	var server *http.Server
	if cfg.Health.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := store.Ping(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		server = &http.Server{Addr: cfg.Health.Addr, Handler: mux}
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	<-groupCtx.Done()
	logger.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(shutdownCtx)
	}
	botSvc.Close(shutdownCtx)
	stop()
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("background worker failed", zap.Error(err))
	}
	if err := batch.Flush(shutdownCtx); err != nil {
		logger.Error("final highlight flush failed", zap.Error(err))
	}
}
