package core

import (
	"context"
	"errors"
	"time"
)

// User represents an authenticated principal returned to handlers.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

var (
	// ErrInvalidCredentials is returned when username/password is wrong.
	// It never distinguishes an unknown user from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")
)

// AuthService defines authentication and registration behaviour.
type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (User, error)
	Register(ctx context.Context, username, password string) (User, error)
}
