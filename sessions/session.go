package sessions

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-user-admin/internal/errors"
	"github.com/jrsteele09/go-user-admin/users"
)

// Storage keys, shared by every Repo implementation.
const (
	TokenKey = "authToken"
	UserKey  = "currentUser"
)

// ErrEmpty is returned by Get when no complete session is stored.
var ErrEmpty = errors.New("no stored session")

// Record is what survives a restart: the raw bearer token and the user it belongs to.
type Record struct {
	Token string
	User  users.User
}

// Validate rejects records that would leave a token without a user or the reverse.
func (r Record) Validate() error {
	if r.Token == "" {
		return fmt.Errorf("session record: %w: token is empty", errors.ErrInvalidToken)
	}
	if r.User.ID == "" && r.User.Email == "" {
		return fmt.Errorf("session record: user has neither id nor email")
	}
	return nil
}

// Marshal lays a record out as the two stored values.
func Marshal(r Record) (map[string][]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	user, err := json.Marshal(r.User)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", UserKey, err)
	}
	return map[string][]byte{
		TokenKey: []byte(r.Token),
		UserKey:  user,
	}, nil
}

// Unmarshal rebuilds a record from the stored values. A missing half yields ErrEmpty,
// an unreadable user yields ErrSessionStoreCorrupted.
func Unmarshal(values map[string][]byte) (Record, error) {
	token, hasToken := values[TokenKey]
	user, hasUser := values[UserKey]
	if !hasToken || !hasUser || len(token) == 0 || len(user) == 0 {
		return Record{}, ErrEmpty
	}

	var rec Record
	if err := json.Unmarshal(user, &rec.User); err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", errors.ErrSessionStoreCorrupted, UserKey, err)
	}
	rec.Token = string(token)
	return rec, nil
}

// Partial reports whether exactly one of the two keys is present.
func Partial(values map[string][]byte) bool {
	_, hasToken := values[TokenKey]
	_, hasUser := values[UserKey]
	return hasToken != hasUser
}
