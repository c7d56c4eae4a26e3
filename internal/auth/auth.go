// Package auth carries the authenticated principal through a request
// context. Stores refuse to run without one.
package auth

import (
	"context"
	"errors"
	"fmt"
)

type contextKey string

const (
	// PrincipalContextKey is the context key for the authenticated principal
	PrincipalContextKey contextKey = "principal"
)

// Principal is the authenticated owner of reminders and groups.
type Principal struct {
	UserID int64
	Name   string
}

// ErrorType represents the type of authentication error
type ErrorType string

const (
	ErrUnauthenticated    ErrorType = "unauthenticated"
	ErrInvalidCredentials ErrorType = "invalid_credentials"
)

// Error represents an authentication-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any auth error of the same type.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// ErrNotAuthenticated is returned by every store call made without a
// principal in the context.
var ErrNotAuthenticated = &Error{Type: ErrUnauthenticated, Message: "not authenticated"}

// ErrBadCredentials is returned when credentials were presented but do not
// match.
var ErrBadCredentials = &Error{Type: ErrInvalidCredentials, Message: "invalid credentials"}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// GetPrincipalFromContext retrieves the authenticated principal from the context
func GetPrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(PrincipalContextKey).(*Principal); ok {
		return p
	}
	return nil
}

// UserID returns the id of the authenticated user or ErrNotAuthenticated.
func UserID(ctx context.Context) (int64, error) {
	p := GetPrincipalFromContext(ctx)
	if p == nil || p.UserID == 0 {
		return 0, ErrNotAuthenticated
	}
	return p.UserID, nil
}
