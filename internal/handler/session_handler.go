package handler

import (
	"quiz-engine/internal/domain"
	"quiz-engine/internal/dto"
	"quiz-engine/internal/middleware"
	"quiz-engine/internal/service"
	"quiz-engine/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SessionHandler handles quiz session HTTP requests
type SessionHandler struct {
	service   service.SessionService
	validator *validation.Validator
}

// NewSessionHandler creates a new SessionHandler instance
func NewSessionHandler(service service.SessionService, validator *validation.Validator) *SessionHandler {
	return &SessionHandler{
		service:   service,
		validator: validator,
	}
}

func sessionIDFrom(c *fiber.Ctx) string {
	if id, ok := c.Locals(middleware.ValidatedSessionIDKey).(string); ok {
		return id
	}
	return c.Params("id")
}

// CreateSession godoc
// @Summary Start a quiz session
// @Description Selects questions for the given criteria and persists a new session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest true "Selection criteria"
// @Success 201 {object} dto.CreateSessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ValidationErrors{domain.NewInvalidFormatError("body", err.Error())}
	}

	criteria, errs := h.validator.ValidateCreateSessionRequest(&req)
	if len(errs) > 0 {
		return errs
	}

	session, err := h.service.CreateSession(c.Context(), criteria, domain.Preferences(req.Preferences))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateSessionResponse{
		SessionID:      session.ID,
		Mode:           string(session.Mode),
		Discipline:     session.Criteria.Discipline,
		TopicName:      session.TopicName,
		TotalQuestions: len(session.Questions),
		StartedAt:      session.StartedAt,
	})
}

// GetCurrentQuestion godoc
// @Summary Get the current question
// @Description Returns the active question with lettered options, or completed=true
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.QuestionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id}/question [get]
func (h *SessionHandler) GetCurrentQuestion(c *fiber.Ctx) error {
	resp, err := h.service.CurrentQuestion(c.Context(), sessionIDFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SubmitAnswer godoc
// @Summary Answer the current question
// @Description Scores the answer against the elapsed time and advances the session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.SubmitAnswerRequest true "Submitted option text"
// @Success 200 {object} dto.SubmitAnswerResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /sessions/{id}/answers [post]
func (h *SessionHandler) SubmitAnswer(c *fiber.Ctx) error {
	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ValidationErrors{domain.NewInvalidFormatError("body", err.Error())}
	}
	if errs := h.validator.ValidateSubmitAnswerRequest(&req); len(errs) > 0 {
		return errs
	}

	resp, err := h.service.SubmitAnswer(c.Context(), sessionIDFrom(c), req.SubmittedOption)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Finalize godoc
// @Summary Finalize a session
// @Description Marks remaining questions unanswered and stamps finished_at. Safe to repeat.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.FinalizeResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /sessions/{id}/finalize [post]
func (h *SessionHandler) Finalize(c *fiber.Ctx) error {
	session, err := h.service.Finalize(c.Context(), sessionIDFrom(c))
	if err != nil {
		return err
	}

	resp := dto.FinalizeResponse{
		SessionID:      session.ID,
		StartedAt:      session.StartedAt,
		TotalQuestions: len(session.Questions),
	}
	if session.FinishedAt != nil {
		resp.FinishedAt = *session.FinishedAt
	}
	for _, a := range session.Answers {
		resp.TotalPoints += a.Points
		if a.Unanswered {
			resp.UnansweredCount++
		} else {
			resp.AnsweredCount++
		}
	}
	return c.JSON(resp)
}

// GetReport godoc
// @Summary Get the session report
// @Description Score, accuracy, elapsed time and per-question breakdown
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} domain.Report
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id}/report [get]
func (h *SessionHandler) GetReport(c *fiber.Ctx) error {
	report, err := h.service.Report(c.Context(), sessionIDFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(report)
}
