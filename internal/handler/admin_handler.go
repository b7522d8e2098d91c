package handler

import (
	"quiz-engine/internal/logger"
	"quiz-engine/internal/middleware"
	"quiz-engine/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminHandler exposes question bank administration behind AdminOnly.
type AdminHandler struct {
	service service.BankService
}

func NewAdminHandler(service service.BankService) *AdminHandler {
	return &AdminHandler{service: service}
}

// GetStats godoc
// @Summary Question bank statistics
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} bank.Stats
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Router /admin/stats [get]
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	return c.JSON(h.service.Stats())
}

// ReloadBank godoc
// @Summary Reload the question bank from disk
// @Description On failure the previous bank stays active
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.ReloadResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /admin/bank/reload [post]
func (h *AdminHandler) ReloadBank(c *fiber.Ctx) error {
	subject, _ := c.Locals(middleware.AdminSubjectKey).(string)
	logger.Get().Info("Bank reload requested", zap.String("subject", subject))

	resp, err := h.service.Reload(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
