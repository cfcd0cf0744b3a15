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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"dentalcare-functions/internal/app"
	"dentalcare-functions/internal/httpapi"
	"dentalcare-functions/internal/observability"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	a, err := app.Bootstrap(ctx, metrics)
	if err != nil {
		slog.Error("failed to bootstrap", "err", err)
		os.Exit(1)
	}

	api, err := httpapi.New(a.Appointment, a.Contact, a.Chat, metrics.Handler())
	if err != nil {
		slog.Error("failed to create router", "err", err)
		os.Exit(1)
	}
	httpServer := &http.Server{
		Addr:              a.Config.DevBindAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", a.Config.DevBindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen error", "err", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown failed", "err", err)
		_ = httpServer.Close()
	}
	slog.Info("shutdown complete")
}
