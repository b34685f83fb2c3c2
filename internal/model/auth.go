package model

import (
	"time"

	"github.com/treegar/admin-console/internal/validation"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() error { return validation.Struct(r) }

// LoginResponse either completes the login (Token + User) or asks for a
// one-time code (RequiresTwoFactor + TwoFactorToken).
type LoginResponse struct {
	RequiresTwoFactor bool       `json:"requiresTwoFactor"`
	TwoFactorToken    string     `json:"twoFactorToken,omitempty"`
	Token             string     `json:"token,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	User              *User      `json:"user,omitempty"`
}

type VerifyOTPRequest struct {
	Email          string `json:"email,omitempty"`
	TwoFactorToken string `json:"twoFactorToken" validate:"required"`
	Code           string `json:"code" validate:"required,numeric,len=6"`
}

func (r VerifyOTPRequest) Validate() error { return validation.Struct(r) }

type ResendOTPRequest struct {
	TwoFactorToken string `json:"twoFactorToken" validate:"required"`
}
