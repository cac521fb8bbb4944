// Package api exposes the app over HTTP and WebSocket.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pillwise/pillwise/internal/assistant"
	"github.com/pillwise/pillwise/internal/config"
	"github.com/pillwise/pillwise/internal/metrics"
	"github.com/pillwise/pillwise/internal/reminder"
	"github.com/pillwise/pillwise/internal/repo"
	"github.com/pillwise/pillwise/internal/session"
	"go.uber.org/zap"
)

// Server handles HTTP API and WebSocket
type Server struct {
	app       *fiber.App
	config    *config.Config
	repo      *repo.Repository
	sessions  *session.Manager
	assistant *assistant.Service
	hub       *Hub
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a new API server
func New(cfg *config.Config, r *repo.Repository, sessions *session.Manager, assistantSvc *assistant.Service, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	s := &Server{
		app:       app,
		config:    cfg,
		repo:      r,
		sessions:  sessions,
		assistant: assistantSvc,
		hub:       NewHub(logger),
		logger:    logger,
		now:       time.Now,
	}

	s.setupRoutes()
	return s
}

// NotifyDueDose pushes a due-dose event to every connected client. It
// is wired as the reminder runner's callback.
func (s *Server) NotifyDueDose(d reminder.DueDose) {
	metrics.RecordReminderFired()
	s.hub.Broadcast(fiber.Map{"type": "dose_due", "dose": d})
}

// Start starts the server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	s.logger.Info("API server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.hub.CloseAll()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}
