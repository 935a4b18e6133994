package fakesessionrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-user-admin/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo keeps the two stored values in memory and counts writes
// so tests can assert that nothing was persisted.
type FakeSessionRepo struct {
	values  map[string][]byte
	lock    sync.RWMutex
	upserts int
	deletes int
	failErr error
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		values: make(map[string][]byte),
	}
}

// NewFakeSessionRepoWith starts with record already stored.
func NewFakeSessionRepoWith(record sessions.Record) *FakeSessionRepo {
	sr := NewFakeSessionRepo()
	values, err := sessions.Marshal(record)
	if err != nil {
		panic(err)
	}
	sr.values = values
	return sr
}

func (sr *FakeSessionRepo) Get(ctx context.Context) (sessions.Record, error) {
	if err := ctx.Err(); err != nil {
		return sessions.Record{}, err
	}

	sr.lock.Lock()
	defer sr.lock.Unlock()

	if sessions.Partial(sr.values) {
		sr.values = make(map[string][]byte)
	}
	return sessions.Unmarshal(sr.values)
}

func (sr *FakeSessionRepo) Upsert(ctx context.Context, record sessions.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sr.lock.Lock()
	defer sr.lock.Unlock()

	if sr.failErr != nil {
		return sr.failErr
	}
	values, err := sessions.Marshal(record)
	if err != nil {
		return err
	}
	sr.values = values
	sr.upserts++
	return nil
}

func (sr *FakeSessionRepo) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.values = make(map[string][]byte)
	sr.deletes++
	return nil
}

// SetRaw writes a single key directly, bypassing the pairing rule.
func (sr *FakeSessionRepo) SetRaw(key string, value []byte) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.values[key] = value
}

// Raw returns a stored value as is.
func (sr *FakeSessionRepo) Raw(key string) ([]byte, bool) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	v, ok := sr.values[key]
	return v, ok
}

// FailWrites makes every following Upsert return err.
func (sr *FakeSessionRepo) FailWrites(err error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.failErr = err
}

func (sr *FakeSessionRepo) Upserts() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return sr.upserts
}

func (sr *FakeSessionRepo) Deletes() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return sr.deletes
}

func (sr *FakeSessionRepo) Empty() bool {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.values) == 0
}
