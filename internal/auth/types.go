// Package auth stores user accounts and checks credentials at login.
//
// Credentials are compared in plaintext, matching the system this service
// replaces. That is a known weakness, kept deliberately rather than fixed
// silently; see DESIGN.md.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// User is a registered account.
type User struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists user accounts.
type Store interface {
	Create(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) error
	Close() error
}
