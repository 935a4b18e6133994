package gateway

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-user-admin/internal/errors"
)

// DefaultLoginMessage is shown when a rejected login carries no message of its own.
const DefaultLoginMessage = "Invalid credentials. Please try again."

// ValidationError carries the backend's field messages unchanged.
type ValidationError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages returns one line per field, prefixed with the field name when the backend sent one.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field != "" {
			out = append(out, f.Field+": "+f.Message)
		} else {
			out = append(out, f.Message)
		}
	}
	return out
}

func (e *ValidationError) Unwrap() error {
	return errors.ErrValidation
}

// AuthError means the server no longer accepts the token that was sent.
type AuthError struct {
	Status  int
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("unauthorized (%d %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("unauthorized (%d): %s", e.Status, e.Message)
}

func (e *AuthError) Unwrap() error {
	return errors.ErrUnauthorized
}

// NetworkError means no response was obtained.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{errors.ErrNetwork}
	}
	return []error{errors.ErrNetwork, e.Err}
}

// ServerError covers every other failure, including bodies that could not be parsed.
type ServerError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *ServerError) Error() string {
	if e.Status == 0 {
		return "server error: " + e.Message
	}
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

func (e *ServerError) Unwrap() []error {
	if e.Err == nil {
		return []error{errors.ErrServer}
	}
	return []error{errors.ErrServer, e.Err}
}

// LoginError is a rejected login. It never ends a session.
type LoginError struct {
	Status  int
	Message string
}

func (e *LoginError) Error() string {
	return e.Message
}

func (e *LoginError) Unwrap() error {
	return errors.ErrLoginFailed
}
