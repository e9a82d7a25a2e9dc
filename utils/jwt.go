package utils

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vnkhanh/e-flashcard-backend/models"
)

// SupabaseClaims is the payload of a Supabase access token.
type SupabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 access tokens signed with the project's JWT secret.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &TokenVerifier{secret: []byte(secret)}, nil
}

// Verify returns the user identified by the token's sub claim.
func (v *TokenVerifier) Verify(tokenString string) (*models.User, error) {
	claims := &SupabaseClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return nil, errors.New("invalid token: sub is not a user id")
	}
	role := models.UserRole(claims.Role)
	if role == "" {
		role = models.RoleAuthenticated
	}
	return &models.User{ID: id, Email: claims.Email, Role: role}, nil
}
