package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"keypad-calculator/internal/calculator"
	"keypad-calculator/internal/config"
	"keypad-calculator/internal/keypad"
	"keypad-calculator/internal/observability"
	"keypad-calculator/internal/server"
)

func main() {

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Config
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Logger
	if err := observability.InitLogger(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	// Tracing, metrics, log export
	shutdown, err := initObservability(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer shutdown(context.Background())

	// Calculator sessions
	newCalculator := func() *keypad.Calculator {
		return keypad.New(cfg.KeypadOptions()...)
	}
	store := calculator.NewStore(newCalculator, cfg.SessionIdleTTL)
	if cfg.SessionIdleTTL > 0 {
		go store.Janitor(ctx, janitorInterval(cfg.SessionIdleTTL))
	}

	// Router
	router := server.NewRouter(calculator.NewHandler(store, newCalculator))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.HTTPAddr),
			zap.Bool("otel_enabled", cfg.OTelEnabled),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(srv, cfg.ShutdownTimeout)
}

// janitorInterval sweeps a few times per TTL without spinning on tiny TTLs.
func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

func waitForShutdown(srv *http.Server, timeout time.Duration) {

	stop := make(chan os.Signal, 1)

	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	observability.Logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
