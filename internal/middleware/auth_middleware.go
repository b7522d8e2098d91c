package middleware

import (
	"errors"
	"strings"

	"quiz-engine/internal/dto"
	"quiz-engine/internal/logger"
	"quiz-engine/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	AdminSubjectKey     = "adminSubject" // Key for storing the token subject in fiber.Ctx locals
)

// AdminOnly protects the bank administration routes. It requires a valid bearer
// JWT carrying the admin role and stores the token subject in the context.
func AdminOnly(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "MISSING_AUTH_HEADER",
				Message: "Authorization header is missing",
				Status:  fiber.StatusUnauthorized,
			})
		}

		if !strings.HasPrefix(authHeader, BearerSchema) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_AUTH_SCHEME",
				Message: "Authorization scheme is not Bearer",
				Status:  fiber.StatusUnauthorized,
			})
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerSchema))
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "EMPTY_TOKEN",
				Message: "Token is empty",
				Status:  fiber.StatusUnauthorized,
			})
		}

		claims, err := authService.ValidateJWT(c.Context(), tokenString)
		if err != nil {
			if errors.Is(err, service.ErrAuthDisabled) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
					Code:    "AUTH_DISABLED",
					Message: err.Error(),
					Status:  fiber.StatusServiceUnavailable,
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: err.Error(),
				Status:  fiber.StatusUnauthorized,
			})
		}

		if claims.Role != dto.RoleAdmin {
			logger.Get().Warn("Admin route called without admin role",
				zap.String("subject", claims.Subject),
				zap.String("role", claims.Role),
				zap.String("path", c.Path()))
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "Admin role required",
				Status:  fiber.StatusForbidden,
			})
		}

		c.Locals(AdminSubjectKey, claims.Subject)
		return c.Next()
	}
}
