package api

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/foresvi/tracker/pkg/entity"
)

type JWTServiceI interface {
	GenerateToken(user *entity.User) (string, error)
	// GenerateImpersonationToken issues a token acting as target while
	// remembering the admin who started the impersonation.
	GenerateImpersonationToken(target *entity.User, impersonatorID string) (string, error)
	ParseToken(tokenString string) (*JWTClaims, error)
}

type JWTClaims struct {
	jwt.RegisteredClaims
	UserID         string      `json:"user_id"`
	CompanyID      string      `json:"company_id"`
	Role           entity.Role `json:"role"`
	ImpersonatorID string      `json:"impersonator_id,omitempty"`
}
