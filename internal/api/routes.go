package api

import (
	"strings"

	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
)

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.config.Security.AllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	s.app.Use(s.rateLimiter())
	s.app.Use(s.recordMetrics())

	s.app.Get("/api/health", s.handleHealth)

	api := s.app.Group("/api")

	api.Post("/auth/login", s.handleLogin)
	api.Post("/auth/signup", s.handleSignup)
	api.Post("/auth/logout", s.handleLogout)

	protected := api.Use(s.requireSession())

	protected.Get("/me", s.handleMe)
	protected.Put("/me", s.handleUpdateMe)

	protected.Get("/settings", s.handleGetSettings)
	protected.Put("/settings", s.handleUpdateSettings)

	protected.Get("/patients", s.handleListPatients)
	protected.Post("/patients", s.handleAddPatient)
	protected.Get("/patients/:id", s.handleGetPatient)
	protected.Put("/patients/:id", s.handleUpdatePatient)
	protected.Delete("/patients/:id", s.handleDeletePatient)
	protected.Post("/patients/:id/medications", s.handleAddMedication)
	protected.Post("/patients/:id/logs", s.handleAddLog)
	protected.Get("/patients/:id/next-dose", s.handleNextDose)
	protected.Get("/patients/:id/remaining", s.handleRemainingToday)
	protected.Get("/patients/:id/today", s.handleTodayStatus)

	protected.Post("/caretakers", s.handleAddCaretaker)
	protected.Get("/caretakers/:id", s.handleGetCaretaker)
	protected.Put("/caretakers/:id", s.handleUpdateCaretaker)
	protected.Get("/caretakers/:id/patients", s.handleCaretakerPatients)
	protected.Post("/caretakers/:id/patients", s.handleLinkPatient)
	protected.Get("/caretakers/:id/dashboard", s.handleCaretakerDashboard)

	protected.Get("/conversations", s.handleListConversations)
	protected.Post("/conversations", s.handleStartConversation)
	protected.Get("/conversations/:id/messages", s.handleGetMessages)
	protected.Post("/chat", s.handleChat)

	s.app.Get("/ws", websocket.New(s.handleWebSocket))
}
