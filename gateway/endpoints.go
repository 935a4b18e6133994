package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-user-admin/internal/errors"
	"github.com/jrsteele09/go-user-admin/users"
)

// Login posts credentials without an Authorization header. A rejected login returns a
// *LoginError and never signals the authenticator.
func (c *Client) Login(ctx context.Context, creds users.Credentials) (*users.LoginResult, error) {
	res := c.send(ctx, http.MethodPost, "/login", creds, false)

	switch res.Outcome {
	case OutcomeSuccess:
		var out users.LoginResult
		if err := res.Decode(&out); err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidLoginResponse, "%v", err)
		}
		return &out, nil
	case OutcomeAuth, OutcomeServer:
		msg := res.Message
		if res.Generic || msg == "" {
			msg = DefaultLoginMessage
		}
		return nil, &LoginError{Status: res.Status, Message: msg}
	default:
		return nil, res.Err()
	}
}

// ListUsers fetches one page of users. Blank filter values are not sent.
func (c *Client) ListUsers(ctx context.Context, filter users.ListFilter) (*users.Page, error) {
	path := "/users"
	if q := filter.Values().Encode(); q != "" {
		path += "?" + q
	}
	page, err := call[users.Page](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if page.Users == nil {
		page.Users = []users.User{}
	}
	return page, nil
}

func (c *Client) GetUser(ctx context.Context, id users.ID) (*users.User, error) {
	return call[users.User](ctx, c, http.MethodGet, userPath(id), nil)
}

func (c *Client) CreateUser(ctx context.Context, in users.Input) (*users.User, error) {
	return call[users.User](ctx, c, http.MethodPost, "/users", in)
}

func (c *Client) UpdateUser(ctx context.Context, id users.ID, in users.Input) (*users.User, error) {
	return call[users.User](ctx, c, http.MethodPut, userPath(id), in)
}

func (c *Client) DeleteUser(ctx context.Context, id users.ID) error {
	return c.Send(ctx, http.MethodDelete, userPath(id), nil).Err()
}

// Stats fetches the dashboard totals.
func (c *Client) Stats(ctx context.Context) (*users.Stats, error) {
	return call[users.Stats](ctx, c, http.MethodGet, "/users/stats/overview", nil)
}

// Metadata fetches the roles and positions offered by the user form.
func (c *Client) Metadata(ctx context.Context) (*users.Metadata, error) {
	return call[users.Metadata](ctx, c, http.MethodGet, "/metadata", nil)
}

func userPath(id users.ID) string {
	return "/users/" + url.PathEscape(id.String())
}

func call[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	res := c.Send(ctx, method, path, body)
	if err := res.Err(); err != nil {
		return nil, err
	}
	out := new(T)
	if err := res.Decode(out); err != nil {
		return nil, &ServerError{Status: res.Status, Message: "invalid response data", Err: err}
	}
	return out, nil
}
