package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailAlreadyUsed   = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrNameRequired       = errors.New("display name is required")
	ErrPasswordTooShort   = errors.New("password is too short")
)

// User represents a registered account. Email is the stable requester
// identity that bookings are keyed on.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  string
	IsAdmin      bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}
