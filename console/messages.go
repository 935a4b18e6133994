package console

import (
	"strings"

	"github.com/jrsteele09/go-user-admin/auth"
	"github.com/jrsteele09/go-user-admin/gateway"
	"github.com/jrsteele09/go-user-admin/internal/errors"
)

const (
	NetworkMessage       = "Network error. Please check if the server is running."
	InvalidLoginMessage  = "Invalid login data received"
	InvalidTokenMessage  = "Invalid token received from server"
	GenericFailureReason = "Request failed"
)

// Message renders err for the user. fallback replaces generic server failures,
// e.g. "Failed to delete user".
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if fallback == "" {
		fallback = GenericFailureReason
	}

	var (
		loginErr      *gateway.LoginError
		validationErr *gateway.ValidationError
		serverErr     *gateway.ServerError
	)
	switch {
	case errors.As(err, &loginErr):
		return loginErr.Message
	case errors.Is(err, errors.ErrUnauthorized), errors.Is(err, errors.ErrNoSession):
		return auth.SessionExpiredMessage
	case errors.As(err, &validationErr):
		return validationMessage(validationErr)
	case errors.Is(err, errors.ErrNetwork):
		return NetworkMessage
	case errors.As(err, &serverErr):
		if serverErr.Message == "" || serverErr.Message == GenericFailureReason {
			return fallback
		}
		return serverErr.Message
	case errors.Is(err, errors.ErrInvalidLoginResponse):
		return InvalidLoginMessage
	case errors.Is(err, errors.ErrTokenExpired), errors.Is(err, errors.ErrInvalidToken):
		return InvalidTokenMessage
	}
	return fallback
}

// validationMessage joins the field messages unchanged: "Validation errors: a, b".
func validationMessage(e *gateway.ValidationError) string {
	if len(e.Fields) == 0 {
		if e.Message != "" && e.Message != GenericFailureReason {
			return e.Message
		}
		return "Validation errors"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "Validation errors: " + strings.Join(msgs, ", ")
}
