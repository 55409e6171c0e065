package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/larder/internal/bus"
	"github.com/dukerupert/larder/internal/checkout"
	"github.com/dukerupert/larder/internal/config"
	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/logging"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/server"
	ws "github.com/dukerupert/larder/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub(logger.With("component", "websocket"))

	// With Redis, every instance publishes checkout events to the channel and
	// forwards what it receives to its own websocket clients.
	var notifier checkout.Notifier
	if cfg.RedisAddr != "" {
		rn, err := bus.NewRedisNotifier(ctx, cfg.RedisAddr, cfg.RedisChannel, logger.With("component", "bus"))
		if err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer rn.Close()

		err = rn.StartForwarder(ctx, func(ev model.Event) {
			if _, err := hub.Deliver(ev); err != nil {
				logger.Warn("deliver checkout event", "shopping_list_id", ev.ShoppingListID, "error", err)
			}
		})
		if err != nil {
			logger.Error("failed to start redis forwarder", "error", err)
			os.Exit(1)
		}
		notifier = rn
	}

	srv := server.New(db, hub, notifier, cfg, logger)

	// No WriteTimeout: it would also cut off hijacked websocket connections.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go srv.RateLimiter().RunCleanup(ctx, time.Hour)

	go func() {
		logger.Info("larder starting", "addr", httpServer.Addr, "redis", cfg.RedisAddr != "")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
