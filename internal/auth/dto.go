package auth

import (
	"github.com/abhishekwt3/e-commerce-mobile/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Phone     *string `json:"phone,omitempty"`
}

// RefreshRequest renews a login. AccessToken may already be expired.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse contains the tokens and user produced by register, login and refresh.
type AuthResponse struct {
	Message      string         `json:"message,omitempty"`
	Token        string         `json:"token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.Profile `json:"user"`
}
