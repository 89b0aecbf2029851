package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"simarket/internal/api"
	"simarket/internal/config"
	"simarket/internal/ledger"
	"simarket/internal/market"
	"simarket/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadServerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var archiver api.TickArchiver
	if cfg.DatabaseURL != "" {
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		a, err := store.NewArchiver(ctx, pool, cfg.Seed, string(cfg.EffectMode))
		if err != nil {
			logger.Error("archiver init failed", "err", err)
			os.Exit(1)
		}
		archiver = a
	}

	engine := market.NewEngine(cfg.Seed, cfg.InstrumentCount, cfg.EffectMode, ledger.NewBook(), logger)
	server := api.New(cfg, logger, engine, archiver)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	tickPaused := strings.EqualFold(strings.TrimSpace(os.Getenv("SIMARKET_TICK_PAUSED")), "true")
	if !tickPaused {
		go func() {
			ticker := time.NewTicker(cfg.TickEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					server.AdvanceHours(ctx, cfg.HoursPerTick)
				}
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("simarket api listening",
		"addr", cfg.Addr,
		"seed", cfg.Seed,
		"effect_mode", string(cfg.EffectMode),
		"tick_every", cfg.TickEvery.String(),
		"tick_paused", tickPaused)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
