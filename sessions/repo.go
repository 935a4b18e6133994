package sessions

import "context"

// Repo is the persistent storage of the current session.
// Token and user are one unit: Upsert writes both, Delete removes both, and Get never
// returns one without the other.
type Repo interface {
	// Get returns the stored record, or ErrEmpty
	Get(ctx context.Context) (Record, error)

	// Upsert replaces the stored record
	Upsert(ctx context.Context, record Record) error

	// Delete removes the stored record. Deleting an empty store is not an error.
	Delete(ctx context.Context) error
}
