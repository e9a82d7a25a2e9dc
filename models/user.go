package models

import (
	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAuthenticated UserRole = "authenticated"
	RoleServiceRole   UserRole = "service_role"
)

// User is the identity resolved from a verified session token. Accounts live with the
// auth provider; nothing here is persisted.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  UserRole  `json:"role"`
}
