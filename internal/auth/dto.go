package auth

import (
	"time"

	"github.com/daisydays/daisydays-backend/internal/media"
	"github.com/daisydays/daisydays-backend/internal/users"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest carries the ID token returned by Google Identity Services.
type GoogleLoginRequest struct {
	Credential string `json:"credential" validate:"required"`
}

// AuthResponse is returned by every sign-in flavour.
type AuthResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      *users.UserDTO `json:"user"`
}

// ProfileUpdate is the self-service account patch. Image is set only for multipart requests.
type ProfileUpdate struct {
	Name            *string       `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Phone           *string       `json:"phone,omitempty" validate:"omitempty,max=40"`
	CurrentPassword *string       `json:"currentPassword,omitempty"`
	NewPassword     *string       `json:"newPassword,omitempty" validate:"omitempty,min=8,max=128"`
	Image           *media.Upload `json:"-"`
}
