// Package app wires the pieces together and owns the server lifecycle.
package app

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pillwise/pillwise/internal/api"
	"github.com/pillwise/pillwise/internal/assistant"
	"github.com/pillwise/pillwise/internal/config"
	"github.com/pillwise/pillwise/internal/metrics"
	"github.com/pillwise/pillwise/internal/reminder"
	"github.com/pillwise/pillwise/internal/repo"
	"github.com/pillwise/pillwise/internal/session"
	"github.com/pillwise/pillwise/internal/store"
	"go.uber.org/zap"
)

type App struct {
	Config    *config.Config
	Store     *store.Store
	Repo      *repo.Repository
	Sessions  *session.Manager
	Assistant *assistant.Service
	Reminders *reminder.Runner
	Logger    *zap.Logger
	Version   string
}

func New(cfg *config.Config, st *store.Store, logger *zap.Logger, version string) *App {
	r := repo.New(st, logger)
	sessions := session.NewManager(r, st, cfg, logger)
	assistantSvc := assistant.NewService(st, assistant.NewScriptedResponder(), logger)

	return &App{
		Config:    cfg,
		Store:     st,
		Repo:      r,
		Sessions:  sessions,
		Assistant: assistantSvc,
		Logger:    logger,
		Version:   version,
	}
}

func (app *App) RunServer() {
	server := api.New(app.Config, app.Repo, app.Sessions, app.Assistant, app.Logger)

	if app.Config.Reminders.Enabled {
		app.Reminders = reminder.NewRunner(app.Repo, app.Logger, server.NotifyDueDose)
		if err := app.Reminders.Start(); err != nil {
			app.Logger.Error("Failed to start reminder runner", zap.Error(err))
		} else {
			app.Logger.Info("Reminder runner started")
		}
	}

	var metricsServer *http.Server
	if app.Config.Metrics.Enabled {
		addr := fmt.Sprintf("%s:%d", app.Config.Metrics.Address, app.Config.Metrics.Port)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: addr, Handler: mux}

		go func() {
			app.Logger.Info("Metrics listener started", zap.String("addr", addr))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				app.Logger.Error("Metrics listener error", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := server.Start(); err != nil {
			app.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	app.Logger.Info("Server started",
		zap.String("address", app.Config.Server.Address),
		zap.Int("port", app.Config.Server.Port),
		zap.String("url", fmt.Sprintf("http://localhost:%d", app.Config.Server.Port)),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info("Shutting down...")

	if app.Reminders != nil {
		app.Reminders.Stop()
	}

	if metricsServer != nil {
		metricsServer.Close()
	}

	if err := server.Shutdown(); err != nil {
		app.Logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := app.Store.Close(); err != nil {
		app.Logger.Error("Store close error", zap.Error(err))
	}
}
