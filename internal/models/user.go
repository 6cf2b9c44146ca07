package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a row in the PostgreSQL users table.
type User struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Password          string    `json:"-"` // never serialize
	AcceptingMessages bool      `json:"isAcceptingMessages"`
	CreatedAt         time.Time `json:"createdAt"`
}

// SignUpRequest is the JSON body for POST /api/auth/sign-up.
type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest is the JSON body for POST /api/auth/sign-in. Identifier is
// either the email or the username.
type SignInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}
