package dto

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin is the only role allowed to mutate or inspect the question bank.
const RoleAdmin = "admin"

// AdminClaims defines the custom claims for admin JWTs.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
