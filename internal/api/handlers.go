package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pillwise/pillwise/internal/adherence"
	"github.com/pillwise/pillwise/internal/assistant"
	apperrors "github.com/pillwise/pillwise/internal/errors"
	"github.com/pillwise/pillwise/internal/metrics"
	"github.com/pillwise/pillwise/internal/model"
	"github.com/pillwise/pillwise/internal/repo"
	"github.com/pillwise/pillwise/internal/session"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch apperrors.GetCode(err) {
	case "PATIENT_001", "PATIENT_002", "CARE_001", "CHAT_001", "GEN_001":
		return 404
	case "CARE_002", "AUTH_002", "LOG_001":
		return 409
	case "AUTH_001", "AUTH_003":
		return 401
	case "GEN_002":
		return 400
	default:
		return 500
	}
}

func (s *Server) respondError(c *fiber.Ctx, err error) error {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": appErr.Message, "code": appErr.Code})
	}
	s.logger.Error("Request failed", zap.Error(err))
	return c.Status(500).JSON(fiber.Map{"error": "internal error"})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   "0.1.0",
		"timestamp": time.Now().Unix(),
	})
}

// ==================== Auth ====================

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	user, err := s.sessions.Login(req.Email, req.Password)
	metrics.RecordLogin(err == nil)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(user)
}

func (s *Server) handleSignup(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Type     string `json:"type"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "email and password are required"})
	}

	user, err := s.sessions.Signup(req.Email, req.Password, req.Name, req.Type)
	if err != nil {
		return s.respondError(c, err)
	}
	metrics.RecordSignup()

	return c.Status(201).JSON(user)
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	s.sessions.Logout()
	return c.SendStatus(204)
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	user, err := s.sessions.Current()
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

func (s *Server) handleUpdateMe(c *fiber.Ctx) error {
	var req struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	user, err := s.sessions.UpdateUser(session.UserUpdate{Email: req.Email, Password: req.Password})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// ==================== Settings ====================

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"voiceEnabled":      s.sessions.VoiceEnabled(),
		"language":          s.sessions.Language(),
		"hasCompletedIntro": s.sessions.HasCompletedIntro(),
	})
}

func (s *Server) handleUpdateSettings(c *fiber.Ctx) error {
	var req struct {
		VoiceEnabled      *bool   `json:"voiceEnabled"`
		Language          *string `json:"language"`
		HasCompletedIntro *bool   `json:"hasCompletedIntro"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.VoiceEnabled != nil {
		if err := s.sessions.SetVoiceEnabled(*req.VoiceEnabled); err != nil {
			return s.respondError(c, err)
		}
	}
	if req.Language != nil {
		if err := s.sessions.SetLanguage(*req.Language); err != nil {
			return s.respondError(c, err)
		}
	}
	if req.HasCompletedIntro != nil {
		if err := s.sessions.SetIntroCompleted(*req.HasCompletedIntro); err != nil {
			return s.respondError(c, err)
		}
	}

	return s.handleGetSettings(c)
}

// ==================== Patients ====================

func (s *Server) handleListPatients(c *fiber.Ctx) error {
	return c.JSON(s.repo.Patients())
}

func (s *Server) handleAddPatient(c *fiber.Ctx) error {
	var req struct {
		CaretakerID string        `json:"caretakerId"`
		Patient     model.Patient `json:"patient"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.Patient.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "patient name is required"})
	}

	p := s.repo.AddPatient(req.CaretakerID, req.Patient)
	return c.Status(201).JSON(p)
}

func (s *Server) handleGetPatient(c *fiber.Ctx) error {
	p, err := s.repo.GetPatient(c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(p)
}

func (s *Server) handleUpdatePatient(c *fiber.Ctx) error {
	var req struct {
		Name   *string `json:"name"`
		Email  *string `json:"email"`
		Phone  *string `json:"phone"`
		Age    *int    `json:"age"`
		Avatar *string `json:"avatar"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	p, err := s.repo.UpdatePatient(c.Params("id"), repo.PatientUpdate{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Age:    req.Age,
		Avatar: req.Avatar,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(p)
}

func (s *Server) handleDeletePatient(c *fiber.Ctx) error {
	s.repo.DeletePatient(c.Params("id"), c.Query("caretakerId"))
	return c.SendStatus(204)
}

func (s *Server) handleAddMedication(c *fiber.Ctx) error {
	var req model.Medication
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.Name == "" || len(req.Times) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "medication name and times are required"})
	}

	med, err := s.repo.AddMedication(c.Params("id"), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(201).JSON(med)
}

func (s *Server) handleAddLog(c *fiber.Ctx) error {
	var req model.MedicationLog
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.MedicationID == "" || req.ScheduledTime == "" || req.Status == "" {
		return c.Status(400).JSON(fiber.Map{"error": "medicationId, scheduledTime, and status are required"})
	}
	if req.Date == "" {
		req.Date = model.DateKey(s.now())
	}

	p, err := s.repo.AddLog(c.Params("id"), req)
	if err != nil {
		return s.respondError(c, err)
	}

	metrics.RecordDoseLog(req.Status)
	metrics.SetAdherenceScore(p.ID, p.AdherenceScore)

	return c.Status(201).JSON(p)
}

// ==================== Schedule ====================

func (s *Server) handleNextDose(c *fiber.Ctx) error {
	p, err := s.repo.GetPatient(c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"dose": adherence.NextDose(p, s.now())})
}

func (s *Server) handleRemainingToday(c *fiber.Ctx) error {
	p, err := s.repo.GetPatient(c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}

	doses := adherence.RemainingToday(p, s.now())
	if doses == nil {
		doses = []adherence.Dose{}
	}
	return c.JSON(doses)
}

func (s *Server) handleTodayStatus(c *fiber.Ctx) error {
	p, err := s.repo.GetPatient(c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}

	taken, missed, total := adherence.TodayStatus(p)
	return c.JSON(fiber.Map{
		"taken":  taken,
		"missed": missed,
		"total":  total,
	})
}

// ==================== Caretakers ====================

func (s *Server) handleAddCaretaker(c *fiber.Ctx) error {
	var req model.Caretaker
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "caretaker name is required"})
	}

	caretaker := s.repo.AddCaretaker(req.ID, req)
	return c.Status(201).JSON(caretaker)
}

func (s *Server) handleGetCaretaker(c *fiber.Ctx) error {
	caretaker, err := s.repo.GetCaretaker(c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(caretaker)
}

func (s *Server) handleUpdateCaretaker(c *fiber.Ctx) error {
	var req struct {
		Name   *string `json:"name"`
		Email  *string `json:"email"`
		Role   *string `json:"role"`
		Phone  *string `json:"phone"`
		Avatar *string `json:"avatar"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	caretaker, err := s.repo.UpdateCaretaker(c.Params("id"), repo.CaretakerUpdate{
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		Phone:  req.Phone,
		Avatar: req.Avatar,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(caretaker)
}

func (s *Server) handleCaretakerPatients(c *fiber.Ctx) error {
	if _, err := s.repo.GetCaretaker(c.Params("id")); err != nil {
		return s.respondError(c, err)
	}

	patients := s.repo.GetPatientsByCaretaker(c.Params("id"))
	if patients == nil {
		patients = []model.Patient{}
	}
	return c.JSON(patients)
}

// handleCaretakerDashboard resolves each linked patient with the
// schedule summary the caretaker screen shows.
func (s *Server) handleCaretakerDashboard(c *fiber.Ctx) error {
	if _, err := s.repo.GetCaretaker(c.Params("id")); err != nil {
		return s.respondError(c, err)
	}

	now := s.now()
	patients := s.repo.GetPatientsByCaretaker(c.Params("id"))

	entries := make([]fiber.Map, 0, len(patients))
	for _, p := range patients {
		taken, missed, total := adherence.TodayStatus(p)
		entries = append(entries, fiber.Map{
			"patient":  p,
			"nextDose": adherence.NextDose(p, now),
			"today": fiber.Map{
				"taken":  taken,
				"missed": missed,
				"total":  total,
			},
		})
	}
	return c.JSON(entries)
}

func (s *Server) handleLinkPatient(c *fiber.Ctx) error {
	var req struct {
		PatientID string `json:"patientId"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.PatientID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "patientId is required"})
	}

	if err := s.repo.LinkPatientToCaretaker(req.PatientID, c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(204)
}

// ==================== Assistant ====================

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	user, err := s.sessions.Current()
	if err != nil {
		return s.respondError(c, err)
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	convs, err := s.assistant.Conversations(user.ID, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list conversations", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to list conversations"})
	}
	return c.JSON(convs)
}

func (s *Server) handleStartConversation(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	user, err := s.sessions.Current()
	if err != nil {
		return s.respondError(c, err)
	}

	conv, err := s.assistant.StartConversation(user.ID, req.Title)
	if err != nil {
		s.logger.Error("Failed to create conversation", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to create conversation"})
	}

	metrics.RecordAssistantMessage(assistant.RoleAssistant)
	return c.Status(201).JSON(conv)
}

func (s *Server) handleGetMessages(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	messages, err := s.assistant.History(c.Params("id"), limit, offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(messages)
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req struct {
		ConversationID string `json:"conversationId"`
		Message        string `json:"message"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.Message == "" {
		return c.Status(400).JSON(fiber.Map{"error": "message is required"})
	}

	reply, err := s.assistant.Send(req.ConversationID, req.Message)
	if err != nil {
		return s.respondError(c, err)
	}

	metrics.RecordAssistantMessage(assistant.RoleUser)
	metrics.RecordAssistantMessage(assistant.RoleAssistant)

	return c.JSON(reply)
}
