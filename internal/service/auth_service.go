package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-engine/internal/config"
	"quiz-engine/internal/dto"
	"quiz-engine/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrInvalidJWTToken = errors.New("invalid JWT token")
	ErrAuthDisabled    = errors.New("admin authentication is not configured")
)

// AuthService issues and validates admin bearer tokens. The session engine itself
// never sees credentials; the HTTP boundary checks them before calling in.
type AuthService interface {
	CreateJWT(ctx context.Context, subject string, ttl time.Duration) (string, error)
	ValidateJWT(ctx context.Context, tokenString string) (*dto.AdminClaims, error)
}

type authServiceImpl struct {
	secret []byte
	issuer string
}

func NewAuthService(cfg config.AuthConfig) AuthService {
	return &authServiceImpl{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

func (s *authServiceImpl) CreateJWT(ctx context.Context, subject string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrAuthDisabled
	}
	now := time.Now()
	claims := dto.AdminClaims{
		Role: dto.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *authServiceImpl) ValidateJWT(ctx context.Context, tokenString string) (*dto.AdminClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrAuthDisabled
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &dto.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Get().Warn("Admin JWT expired", zap.Error(err))
		} else {
			logger.Get().Warn("Admin JWT validation failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}

	if claims, ok := token.Claims.(*dto.AdminClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidJWTToken
}
