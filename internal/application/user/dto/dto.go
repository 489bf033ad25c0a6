// Package dto defines the transport-facing account shapes.
package dto

import (
	"time"

	"keygate/internal/domain/user"
)

type UserResponse struct {
	ID      uint   `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

func FromUser(u *user.User) *UserResponse {
	return &UserResponse{
		ID:      u.ID(),
		Email:   u.Email(),
		IsAdmin: u.IsAdmin(),
	}
}

// AuthResponse carries a bearer token and the account it belongs to.
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *UserResponse `json:"user"`
}
