// Package badgerrepo persists the current session in a Badger directory so it
// survives restarts of the client.
package badgerrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/jrsteele09/go-user-admin/sessions"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "session/"

var _ sessions.Repo = (*BadgerSessionRepo)(nil)

// BadgerSessionRepo stores token and user under two keys, always written in one transaction.
type BadgerSessionRepo struct {
	db *badger.DB
}

// Open opens (or creates) the store in dir.
func Open(dir string) (*BadgerSessionRepo, error) {
	if dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	return open(badger.DefaultOptions(dir))
}

// OpenInMemory opens a store that lives only as long as the process, for tests.
func OpenInMemory() (*BadgerSessionRepo, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*BadgerSessionRepo, error) {
	// two small keys, the defaults are sized for databases
	opts = opts.
		WithLogger(badgerLogger{}).
		WithSyncWrites(true).
		WithNumVersionsToKeep(1).
		WithMemTableSize(4 << 20).
		WithValueThreshold(1 << 10).
		WithValueLogFileSize(16 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}
	return &BadgerSessionRepo{db: db}, nil
}

func (r *BadgerSessionRepo) Get(ctx context.Context) (sessions.Record, error) {
	if err := ctx.Err(); err != nil {
		return sessions.Record{}, err
	}

	values := make(map[string][]byte, 2)
	err := r.db.View(func(txn *badger.Txn) error {
		for _, key := range []string{sessions.TokenKey, sessions.UserKey} {
			item, err := txn.Get(storageKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			values[key] = value
		}
		return nil
	})
	if err != nil {
		return sessions.Record{}, fmt.Errorf("badger: read session: %w", err)
	}

	if sessions.Partial(values) {
		log.Warn().Int("keys", len(values)).Msg("Session store held half a session, clearing it")
		if err := r.Delete(ctx); err != nil {
			return sessions.Record{}, err
		}
		return sessions.Record{}, sessions.ErrEmpty
	}
	return sessions.Unmarshal(values)
}

func (r *BadgerSessionRepo) Upsert(ctx context.Context, record sessions.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	values, err := sessions.Marshal(record)
	if err != nil {
		return err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		for key, value := range values {
			if err := txn.Set(storageKey(key), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger: write session: %w", err)
	}
	return nil
}

func (r *BadgerSessionRepo) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		for _, key := range []string{sessions.TokenKey, sessions.UserKey} {
			if err := txn.Delete(storageKey(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger: delete session: %w", err)
	}
	return nil
}

// setRaw writes one key on its own. Only tests use it, to simulate a torn write.
func (r *BadgerSessionRepo) setRaw(key string, value []byte) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storageKey(key), value)
	})
}

func (r *BadgerSessionRepo) Close() error {
	return r.db.Close()
}

func storageKey(key string) []byte {
	return []byte(keyPrefix + key)
}

// badgerLogger routes badger's own logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Error().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Warn().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	log.Debug().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	log.Trace().Str("component", "badger").Msgf(format, args...)
}
