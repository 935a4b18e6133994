package token

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-user-admin/internal/errors"
)

// DecodeError is returned when a token is absent, malformed or has no usable exp claim.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode token: %s: %v", e.Reason, e.Err)
	}
	return "decode token: " + e.Reason
}

func (e *DecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{errors.ErrInvalidToken, e.Err}
	}
	return []error{errors.ErrInvalidToken}
}

// ExpiredTokenError is a locally detected expiry, skew included.
type ExpiredTokenError struct {
	ExpiresAt time.Time
	CheckedAt time.Time
	Skew      time.Duration
}

func (e *ExpiredTokenError) Error() string {
	return fmt.Sprintf("token expired: exp %s is within %s of %s",
		e.ExpiresAt.UTC().Format(time.RFC3339), e.Skew, e.CheckedAt.UTC().Format(time.RFC3339))
}

func (e *ExpiredTokenError) Unwrap() error {
	return errors.ErrTokenExpired
}
