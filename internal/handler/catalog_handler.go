package handler

import (
	"quiz-engine/internal/middleware"
	"quiz-engine/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves what a client can ask a session for.
type CatalogHandler struct {
	service service.BankService
}

func NewCatalogHandler(service service.BankService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// GetCatalog godoc
// @Summary List periods, disciplines and recovery disciplines
// @Tags catalog
// @Produce json
// @Success 200 {object} dto.CatalogResponse
// @Router /catalog [get]
func (h *CatalogHandler) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(h.service.Catalog())
}

// GetRecoveryTopics godoc
// @Summary List recovery topics of a discipline
// @Tags catalog
// @Produce json
// @Param discipline path string true "Discipline"
// @Success 200 {object} dto.RecoveryTopicsResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /catalog/recovery/{discipline}/topics [get]
func (h *CatalogHandler) GetRecoveryTopics(c *fiber.Ctx) error {
	discipline, ok := c.Locals(middleware.ValidatedDisciplineKey).(string)
	if !ok {
		discipline = c.Params("discipline")
	}
	resp, err := h.service.RecoveryTopics(discipline)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
