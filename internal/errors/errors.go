package errors

import (
	"errors"
	"fmt"
)

// Common error types for the user admin client
var (
	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Gateway outcomes
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
	ErrLoginFailed  = errors.New("login failed")

	// Session errors
	ErrNoSession             = errors.New("no active session")
	ErrNotReady              = errors.New("session is still loading")
	ErrAlreadyRestored       = errors.New("session already restored")
	ErrAlreadyAuthenticated  = errors.New("already authenticated")
	ErrSessionChanged        = errors.New("session changed while request was in flight")
	ErrInvalidLoginResponse  = errors.New("invalid login data received")
	ErrSessionStoreCorrupted = errors.New("session store corrupted")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers only import this package
func New(text string) error {
	return errors.New(text)
}
