package middleware

import (
	"quiz-engine/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	ValidatedSessionIDKey  = "validated_session_id"
	ValidatedDisciplineKey = "validated_discipline"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware(v *validation.Validator) *ValidationMiddleware {
	return &ValidationMiddleware{validator: v}
}

// ValidateSessionID validates the :id path parameter
func (vm *ValidationMiddleware) ValidateSessionID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("id")
		if errors := vm.validator.ValidateSessionID(sessionID); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}
		c.Locals(ValidatedSessionIDKey, sessionID)
		return c.Next()
	}
}

// ValidateDiscipline validates the :discipline path parameter
func (vm *ValidationMiddleware) ValidateDiscipline() fiber.Handler {
	return func(c *fiber.Ctx) error {
		discipline := c.Params("discipline")
		if errors := vm.validator.ValidateDiscipline(discipline); len(errors) > 0 {
			return errors
		}
		c.Locals(ValidatedDisciplineKey, discipline)
		return c.Next()
	}
}
