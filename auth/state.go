package auth

import (
	"fmt"

	"github.com/jrsteele09/go-user-admin/users"
)

// SessionExpiredMessage is what the user sees after any involuntary logout.
const SessionExpiredMessage = "Session expired. Please login again."

// State of the client session.
type State int

const (
	StateLoading State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Reason names the trigger of a transition.
type Reason string

const (
	ReasonRestored  Reason = "restored"
	ReasonLoggedIn  Reason = "logged_in"
	ReasonLoggedOut Reason = "logged_out"
	ReasonExpired   Reason = "expired"
	ReasonRejected  Reason = "rejected"
)

// Snapshot is a copy of the session at one point in time.
type Snapshot struct {
	State     State
	Token     string
	User      *users.User
	ExpiresAt int64 // exp of Token, 0 when anonymous
}

// Authenticated reports whether the snapshot holds a usable session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}

// Change is delivered to listeners after every transition.
type Change struct {
	From     State
	To       State
	Reason   Reason
	Message  string // user facing, set for involuntary logouts
	Snapshot Snapshot
}

// LoginRequired reports whether the view should send the user to the login surface.
func (c Change) LoginRequired() bool {
	return c.To == StateAnonymous
}
