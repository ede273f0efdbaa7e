package handler

import (
	"study-buddy/internal/domain"
	"study-buddy/internal/dto"
	"study-buddy/internal/logger"
	"study-buddy/internal/middleware"
	"study-buddy/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionHandler handles quiz session HTTP requests
type SessionHandler struct {
	service service.SessionService
}

// NewSessionHandler creates a new SessionHandler instance
func NewSessionHandler(service service.SessionService) *SessionHandler {
	return &SessionHandler{
		service: service,
	}
}

// RegisterRoutes mounts the session routes on router.
func (h *SessionHandler) RegisterRoutes(router fiber.Router, vm *middleware.ValidationMiddleware) {
	router.Post("/sessions", h.CreateSession)

	id := vm.ValidateSessionID()
	router.Get("/sessions/:id", id, h.GetSession)
	router.Delete("/sessions/:id", id, h.DeleteSession)
	router.Post("/sessions/:id/quiz", id, h.GenerateQuiz)
	router.Put("/sessions/:id/answers/:index", id, vm.ValidateAnswerIndex(), h.RecordAnswer)
	router.Post("/sessions/:id/submit", id, h.SubmitQuiz)
	router.Get("/sessions/:id/results", id, h.GetResults)
	router.Post("/sessions/:id/save", id, h.SaveResults)
}

func sessionID(c *fiber.Ctx) string {
	if id, ok := c.Locals(middleware.LocalSessionID).(string); ok {
		return id
	}
	return c.Params("id")
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	resp, err := h.service.CreateSession(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetSession handles GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	resp, err := h.service.GetSession(c.UserContext(), sessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GenerateQuiz handles POST /api/sessions/:id/quiz
func (h *SessionHandler) GenerateQuiz(c *fiber.Ctx) error {
	var req dto.GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Get().Warn("Failed to parse generate request", zap.Error(err))
		return domain.NewInvalidInputError("invalid request body")
	}

	resp, err := h.service.GenerateQuiz(c.UserContext(), sessionID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RecordAnswer handles PUT /api/sessions/:id/answers/:index
func (h *SessionHandler) RecordAnswer(c *fiber.Ctx) error {
	var req dto.RecordAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	index, _ := c.Locals(middleware.LocalAnswerIndex).(int)

	resp, err := h.service.RecordAnswer(c.UserContext(), sessionID(c), index, req.Answer)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SubmitQuiz handles POST /api/sessions/:id/submit
func (h *SessionHandler) SubmitQuiz(c *fiber.Ctx) error {
	resp, err := h.service.SubmitQuiz(c.UserContext(), sessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetResults handles GET /api/sessions/:id/results
func (h *SessionHandler) GetResults(c *fiber.Ctx) error {
	resp, err := h.service.GetResults(c.UserContext(), sessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SaveResults handles POST /api/sessions/:id/save. The body is optional.
func (h *SessionHandler) SaveResults(c *fiber.Ctx) error {
	var req dto.SaveResultsRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return domain.NewInvalidInputError("invalid request body")
		}
	}

	resp, err := h.service.SaveResults(c.UserContext(), sessionID(c), req.Prefix)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// DeleteSession handles DELETE /api/sessions/:id
func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.service.DeleteSession(c.UserContext(), sessionID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Health handles GET /health
func (h *SessionHandler) Health(c *fiber.Ctx) error {
	if err := h.service.Health(c.UserContext()); err != nil {
		logger.Get().Error("Health check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.HealthResponse{
			Status: "unavailable",
			Checks: map[string]string{"session_store": err.Error()},
		})
	}
	return c.JSON(dto.HealthResponse{Status: "ok"})
}
