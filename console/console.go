// Package console is the boundary between the request API and whatever renders it.
// It groups backend calls the way the screens need them and turns errors into user messages.
package console

import (
	"context"
	"sort"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/jrsteele09/go-user-admin/gateway"
	"github.com/jrsteele09/go-user-admin/internal/errors"
	"github.com/jrsteele09/go-user-admin/users"
	"github.com/rs/zerolog/log"
)

// UserAPI is the part of the gateway the screens use.
type UserAPI interface {
	ListUsers(ctx context.Context, filter users.ListFilter) (*users.Page, error)
	GetUser(ctx context.Context, id users.ID) (*users.User, error)
	CreateUser(ctx context.Context, in users.Input) (*users.User, error)
	UpdateUser(ctx context.Context, id users.ID, in users.Input) (*users.User, error)
	DeleteUser(ctx context.Context, id users.ID) error
	Stats(ctx context.Context) (*users.Stats, error)
	Metadata(ctx context.Context) (*users.Metadata, error)
}

type Console struct {
	api UserAPI
}

func New(api UserAPI) (*Console, error) {
	if api == nil {
		return nil, errors.New("[console.New] user api is required")
	}
	return &Console{api: api}, nil
}

// Dashboard is the home screen: one page of users and the totals. Either half can fail alone.
type Dashboard struct {
	Filter   users.ListFilter
	Page     *users.Page
	Stats    *users.Stats
	UsersErr error
	StatsErr error
}

// Err returns the first failure, users first.
func (d *Dashboard) Err() error {
	if d.UsersErr != nil {
		return d.UsersErr
	}
	return d.StatsErr
}

// Dashboard fetches the user page and the stats concurrently.
func (c *Console) Dashboard(ctx context.Context, filter users.ListFilter) *Dashboard {
	d := &Dashboard{Filter: filter}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.Page, d.UsersErr = c.api.ListUsers(ctx, filter)
	}()
	go func() {
		defer wg.Done()
		d.Stats, d.StatsErr = c.api.Stats(ctx)
	}()
	wg.Wait()

	if d.UsersErr != nil {
		log.Err(d.UsersErr).Msg("[Console.Dashboard] list users")
	}
	if d.StatsErr != nil {
		log.Err(d.StatsErr).Msg("[Console.Dashboard] stats")
	}
	return d
}

// User fetches one record for the detail view.
func (c *Console) User(ctx context.Context, id users.ID) (*users.User, error) {
	return c.api.GetUser(ctx, id)
}

// Metadata fetches the role and position choices for the form.
func (c *Console) Metadata(ctx context.Context) (*users.Metadata, error) {
	return c.api.Metadata(ctx)
}

// SaveUser creates the user when id is empty and updates it otherwise. The input is checked
// locally first; local failures come back as a *gateway.ValidationError like the server's.
func (c *Console) SaveUser(ctx context.Context, id users.ID, in users.Input) (*users.User, error) {
	var err error
	if id == "" {
		err = in.ValidateCreate()
	} else {
		err = in.ValidateUpdate()
	}
	if err != nil {
		return nil, localValidationError(err)
	}

	if id == "" {
		return c.api.CreateUser(ctx, in)
	}
	return c.api.UpdateUser(ctx, id, in)
}

// DeleteUser deletes the user and reloads the dashboard with filter.
func (c *Console) DeleteUser(ctx context.Context, id users.ID, filter users.ListFilter) (*Dashboard, error) {
	if err := c.api.DeleteUser(ctx, id); err != nil {
		return nil, err
	}
	return c.Dashboard(ctx, filter), nil
}

func localValidationError(err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}

	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]gateway.FieldError, 0, len(names))
	for _, name := range names {
		fields = append(fields, gateway.FieldError{Field: name, Message: errs[name].Error()})
	}
	return &gateway.ValidationError{Message: "Validation failed", Fields: fields}
}
