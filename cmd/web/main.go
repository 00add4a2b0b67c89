package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/league-playoffs/internal/config"
	"github.com/AdamBeresnev/league-playoffs/internal/db"
	"github.com/AdamBeresnev/league-playoffs/internal/events"
	"github.com/AdamBeresnev/league-playoffs/internal/jobs"
	"github.com/AdamBeresnev/league-playoffs/internal/lock"
	"github.com/AdamBeresnev/league-playoffs/internal/service"
	"github.com/AdamBeresnev/league-playoffs/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	database, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	playoffService := service.NewPlayoffService(
		database,
		store.NewPlayoffStore(database),
		lock.NewKeyedMutex(),
		events.NewLogDispatcher(slog.Default()),
	)

	if cfg.AdvanceSchedule != "" {
		scheduler, err := jobs.NewAdvanceScheduler(playoffService, cfg.AdvanceSchedule, 2*time.Minute)
		if err != nil {
			log.Fatal("Failed to schedule advance job:", err)
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
		slog.Info("advance job scheduled", "schedule", cfg.AdvanceSchedule)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(playoffService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}
