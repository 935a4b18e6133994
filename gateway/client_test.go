package gateway_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-user-admin/gateway"
	"github.com/jrsteele09/go-user-admin/internal/errors"
	"github.com/jrsteele09/go-user-admin/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeAuth hands out a fixed token and counts rejections.
type fakeAuth struct {
	mu       sync.Mutex
	token    string
	rejected []string
}

func (f *fakeAuth) Token() (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token == "" {
		return nil, errors.ErrNoSession
	}
	return &oauth2.Token{AccessToken: f.token, TokenType: "Bearer"}, nil
}

func (f *fakeAuth) Rejected(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, token)
	f.token = ""
}

func (f *fakeAuth) setToken(t string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = t
}

func (f *fakeAuth) rejections() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.rejected...)
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func newClient(t *testing.T, h http.Handler, auth gateway.Authenticator) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := gateway.New(srv.URL)
	require.NoError(t, err)
	if auth != nil {
		c.SetAuthenticator(auth)
	}
	return c
}

func TestNew(t *testing.T) {
	_, err := gateway.New("  ")
	require.Error(t, err)

	c, err := gateway.New("localhost:8080/")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", c.BaseURL())

	c, err = gateway.New("https://api.example.com")
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com", c.BaseURL())
}

func TestTimeoutAppliesToCopyOfHTTPClient(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	for _, clientFirst := range []bool{false, true} {
		shared := &http.Client{}
		opts := []gateway.Option{gateway.WithTimeout(20 * time.Millisecond), gateway.WithHTTPClient(shared)}
		if clientFirst {
			opts[0], opts[1] = opts[1], opts[0]
		}

		c, err := gateway.New(slow.URL, opts...)
		require.NoError(t, err)

		res := c.Send(context.Background(), http.MethodGet, "/users", nil)
		require.Equal(t, gateway.OutcomeNetwork, res.Outcome, "client first: %v", clientFirst)
		require.Zero(t, shared.Timeout, "client first: %v", clientFirst)
	}
}

func TestSendAttachesCurrentToken(t *testing.T) {
	var gotAuth, gotRequestID string
	h := func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		respond(http.StatusOK, `{"success":true,"data":{"ok":1}}`)(w, r)
	}
	auth := &fakeAuth{token: "tok-1"}
	c := newClient(t, http.HandlerFunc(h), auth)

	res := c.Send(context.Background(), http.MethodGet, "/users", nil)
	require.True(t, res.OK())
	require.Equal(t, "Bearer tok-1", gotAuth)
	require.NotEmpty(t, gotRequestID)
	require.Equal(t, gotRequestID, res.RequestID)
	require.JSONEq(t, `{"ok":1}`, string(res.Data))
	require.NoError(t, res.Err())

	// after logout the next request goes out bare
	auth.setToken("")
	res = c.Send(context.Background(), http.MethodGet, "/users", nil)
	require.True(t, res.OK())
	require.Empty(t, gotAuth)
}

func TestSendWithoutAuthenticator(t *testing.T) {
	var gotAuth string
	h := func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		respond(http.StatusOK, `{"success":true}`)(w, r)
	}
	c := newClient(t, http.HandlerFunc(h), nil)

	require.True(t, c.Send(context.Background(), http.MethodGet, "/metadata", nil).OK())
	require.Empty(t, gotAuth)
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		outcome gateway.Outcome
		message string
		target  error
	}{
		{name: "success", status: 200, body: `{"success":true,"data":[]}`, outcome: gateway.OutcomeSuccess},
		{name: "created", status: 201, body: `{"success":true,"data":{}}`, outcome: gateway.OutcomeSuccess},
		{name: "401", status: 401, body: `{"success":false,"message":"Unauthorized"}`, outcome: gateway.OutcomeAuth, message: "Unauthorized", target: errors.ErrUnauthorized},
		{name: "401 without body", status: 401, body: ``, outcome: gateway.OutcomeAuth, target: errors.ErrUnauthorized},
		{name: "token code on 403", status: 403, body: `{"success":false,"code":"TOKEN_EXPIRED","message":"expired"}`, outcome: gateway.OutcomeAuth, target: errors.ErrUnauthorized},
		{name: "token code lower case", status: 400, body: `{"success":false,"code":"invalid_token"}`, outcome: gateway.OutcomeAuth, target: errors.ErrUnauthorized},
		{name: "token in error", status: 400, body: `{"success":false,"error":"INVALID_TOKEN"}`, outcome: gateway.OutcomeAuth, target: errors.ErrUnauthorized},
		{name: "data details", status: 400, body: `{"success":false,"message":"Validation failed","data":{"details":[{"msg":"Email taken","path":"email"}]}}`, outcome: gateway.OutcomeValidation, message: "Validation failed", target: errors.ErrValidation},
		{name: "top level details", status: 422, body: `{"success":false,"details":[{"msg":"Too short","param":"name"}]}`, outcome: gateway.OutcomeValidation, message: "Request failed", target: errors.ErrValidation},
		{name: "errors array", status: 400, body: `{"errors":[{"message":"bad","field":"age"}]}`, outcome: gateway.OutcomeValidation, target: errors.ErrValidation},
		{name: "2xx with success false and details", status: 200, body: `{"success":false,"data":{"details":[{"msg":"nope"}]}}`, outcome: gateway.OutcomeValidation, target: errors.ErrValidation},
		{name: "2xx with success false", status: 200, body: `{"success":false,"message":"Denied"}`, outcome: gateway.OutcomeServer, message: "Denied", target: errors.ErrServer},
		{name: "400 without details", status: 400, body: `{"success":false,"error":"Bad request"}`, outcome: gateway.OutcomeServer, message: "Bad request", target: errors.ErrServer},
		{name: "404", status: 404, body: `{"success":false,"message":"User not found"}`, outcome: gateway.OutcomeServer, message: "User not found", target: errors.ErrServer},
		{name: "500", status: 500, body: `{"success":false}`, outcome: gateway.OutcomeServer, message: "Request failed", target: errors.ErrServer},
		{name: "html error page", status: 502, body: `<html>Bad Gateway</html>`, outcome: gateway.OutcomeServer, message: "request failed with status 502", target: errors.ErrServer},
		{name: "2xx not json", status: 200, body: `ok`, outcome: gateway.OutcomeServer, message: "invalid response body", target: errors.ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, respond(tt.status, tt.body), nil)
			res := c.Send(context.Background(), http.MethodGet, "/x", nil)

			require.Equal(t, tt.outcome, res.Outcome)
			require.Equal(t, tt.status, res.Status)
			if tt.message != "" {
				require.Equal(t, tt.message, res.Message)
			}
			if tt.target == nil {
				require.NoError(t, res.Err())
				return
			}
			require.True(t, errors.Is(res.Err(), tt.target), "got %v", res.Err())
		})
	}
}

func TestValidationFieldsVerbatim(t *testing.T) {
	body := `{"success":false,"message":"Validation failed","data":{"details":[
		{"msg":"Email already exists","path":"email"},
		{"msg":"Age must be a number","param":"age"},
		{"msg":"Something is off"}
	]}}`
	c := newClient(t, respond(http.StatusBadRequest, body), nil)

	err := c.Send(context.Background(), http.MethodPost, "/users", map[string]string{"name": "x"}).Err()

	var verr *gateway.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []gateway.FieldError{
		{Field: "email", Message: "Email already exists"},
		{Field: "age", Message: "Age must be a number"},
		{Message: "Something is off"},
	}, verr.Fields)
	require.Equal(t, []string{"email: Email already exists", "age: Age must be a number", "Something is off"}, verr.Messages())
}

func TestValidationFieldMap(t *testing.T) {
	c := newClient(t, respond(http.StatusBadRequest, `{"errors":{"name":"required","email":"invalid"}}`), nil)

	res := c.Send(context.Background(), http.MethodPost, "/users", nil)
	require.Equal(t, gateway.OutcomeValidation, res.Outcome)
	require.Equal(t, []gateway.FieldError{{Field: "email", Message: "invalid"}, {Field: "name", Message: "required"}}, res.Fields)
}

func TestNetworkErrorDoesNotSignal(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusOK, `{"success":true}`))
	url := srv.URL
	srv.Close()

	auth := &fakeAuth{token: "tok-1"}
	c, err := gateway.New(url)
	require.NoError(t, err)
	c.SetAuthenticator(auth)

	res := c.Send(context.Background(), http.MethodGet, "/users", nil)
	require.Equal(t, gateway.OutcomeNetwork, res.Outcome)
	require.Zero(t, res.Status)

	err = res.Err()
	var nerr *gateway.NetworkError
	require.True(t, errors.As(err, &nerr))
	require.True(t, errors.Is(err, errors.ErrNetwork))
	require.Equal(t, "/users", nerr.Path)

	require.Empty(t, auth.rejections())
	tok, err := auth.Token()
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok.AccessToken)
}

func TestCancelledContextIsNetworkError(t *testing.T) {
	c := newClient(t, respond(http.StatusOK, `{"success":true}`), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.Send(ctx, http.MethodGet, "/users", nil)
	require.Equal(t, gateway.OutcomeNetwork, res.Outcome)
	require.True(t, errors.Is(res.Err(), context.Canceled))
}

func TestConcurrentAuthErrorsSignalOnce(t *testing.T) {
	release := make(chan struct{})
	var arrived sync.WaitGroup
	const n = 8
	arrived.Add(n)

	h := func(w http.ResponseWriter, r *http.Request) {
		arrived.Done()
		<-release
		respond(http.StatusUnauthorized, `{"success":false,"code":"TOKEN_EXPIRED"}`)(w, r)
	}
	auth := &fakeAuth{token: "tok-1"}
	c := newClient(t, http.HandlerFunc(h), auth)

	var wg sync.WaitGroup
	var authErrors atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if errors.Is(c.Send(context.Background(), http.MethodGet, "/users", nil).Err(), errors.ErrUnauthorized) {
				authErrors.Add(1)
			}
		}()
	}
	arrived.Wait()
	close(release)
	wg.Wait()

	require.EqualValues(t, n, authErrors.Load())
	require.Equal(t, []string{"tok-1"}, auth.rejections())
}

func TestAuthErrorWithoutTokenDoesNotSignal(t *testing.T) {
	auth := &fakeAuth{}
	c := newClient(t, respond(http.StatusUnauthorized, `{"success":false}`), auth)

	res := c.Send(context.Background(), http.MethodGet, "/users", nil)
	require.Equal(t, gateway.OutcomeAuth, res.Outcome)
	require.Empty(t, auth.rejections())
}

func TestNewTokenCanBeRejectedAgain(t *testing.T) {
	auth := &fakeAuth{token: "tok-1"}
	c := newClient(t, respond(http.StatusUnauthorized, `{}`), auth)

	c.Send(context.Background(), http.MethodGet, "/users", nil)
	auth.setToken("tok-2")
	c.Send(context.Background(), http.MethodGet, "/users", nil)

	require.Equal(t, []string{"tok-1", "tok-2"}, auth.rejections())
}

func TestSendEncodesBody(t *testing.T) {
	var got map[string]any
	var contentType string
	h := func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		respond(http.StatusCreated, `{"success":true}`)(w, r)
	}
	c := newClient(t, http.HandlerFunc(h), nil)

	res := c.Send(context.Background(), http.MethodPost, "/users", map[string]any{"name": "Ali"})
	require.True(t, res.OK())
	require.Equal(t, "application/json", contentType)
	require.Equal(t, "Ali", got["name"])

	res = c.Send(context.Background(), http.MethodPost, "/users", map[string]any{"bad": make(chan int)})
	require.Equal(t, gateway.OutcomeServer, res.Outcome)
	require.Error(t, res.Err())
}

func TestMetrics(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusOK, `{"success":true}`))
	t.Cleanup(srv.Close)

	reg := prometheus.NewRegistry()
	c, err := gateway.New(srv.URL, gateway.WithMetrics(reg))
	require.NoError(t, err)

	c.Send(context.Background(), http.MethodGet, "/users", nil)
	c.Send(context.Background(), http.MethodGet, "/users", nil)

	expected := `
# HELP useradmin_gateway_requests_total Requests sent to the backend, by method and outcome.
# TYPE useradmin_gateway_requests_total counter
useradmin_gateway_requests_total{method="GET",outcome="success"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "useradmin_gateway_requests_total"))

	// a second client on the same registry shares the collectors
	c2, err := gateway.New(srv.URL, gateway.WithMetrics(reg))
	require.NoError(t, err)
	c2.Send(context.Background(), http.MethodGet, "/users", nil)
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(strings.Replace(expected, "} 2", "} 3", 1)), "useradmin_gateway_requests_total"))
}

func TestLogin(t *testing.T) {
	var gotAuth string
	var creds users.Credentials
	h := func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&creds)
		respond(http.StatusOK, `{"success":true,"data":{"token":"a.b.c","user":{"id":1,"name":"Ali","email":"ali@example.com","role":"admin"}}}`)(w, r)
	}
	auth := &fakeAuth{token: "stale"}
	c := newClient(t, http.HandlerFunc(h), auth)

	out, err := c.Login(context.Background(), users.Credentials{Email: "ali@example.com", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "a.b.c", out.Token)
	require.Equal(t, users.ID("1"), out.User.ID)
	require.Empty(t, gotAuth)
	require.Equal(t, "secret", creds.Password)
}

func TestLoginRejected(t *testing.T) {
	auth := &fakeAuth{token: "tok-1"}
	c := newClient(t, respond(http.StatusUnauthorized, `{"success":false,"message":"Invalid email or password"}`), auth)

	_, err := c.Login(context.Background(), users.Credentials{Email: "a@b.c", Password: "x"})
	var lerr *gateway.LoginError
	require.True(t, errors.As(err, &lerr))
	require.Equal(t, "Invalid email or password", lerr.Error())
	require.True(t, errors.Is(err, errors.ErrLoginFailed))
	require.Empty(t, auth.rejections())

	for _, tt := range []struct {
		status int
		body   string
	}{
		{status: http.StatusUnauthorized, body: ``},
		{status: http.StatusUnauthorized, body: `<html>Unauthorized</html>`},
		{status: http.StatusInternalServerError, body: `{"success":false}`},
		{status: http.StatusOK, body: `not json`},
	} {
		c = newClient(t, respond(tt.status, tt.body), nil)
		_, err = c.Login(context.Background(), users.Credentials{})
		require.EqualError(t, err, gateway.DefaultLoginMessage, "status %d body %q", tt.status, tt.body)
	}
}

func TestUserEndpoints(t *testing.T) {
	var lastMethod, lastURI string
	h := func(w http.ResponseWriter, r *http.Request) {
		lastMethod, lastURI = r.Method, r.URL.RequestURI()
		switch {
		case r.URL.Path == "/users" && r.Method == http.MethodGet:
			respond(200, `{"success":true,"data":{"users":[{"id":"u1","name":"Ali"}],"pagination":{"page":2,"limit":5,"total":6}}}`)(w, r)
		case r.URL.Path == "/users/stats/overview":
			respond(200, `{"success":true,"data":{"totalUsers":6,"averageAge":31.5,"averageSalary":4200,"departments":3}}`)(w, r)
		case r.URL.Path == "/metadata":
			respond(200, `{"success":true,"data":{"roles":["admin","user"],"positions":["Engineer"]}}`)(w, r)
		case r.Method == http.MethodDelete:
			respond(200, `{"success":true,"message":"deleted"}`)(w, r)
		default:
			respond(200, `{"success":true,"data":{"id":"u1","name":"Ali"}}`)(w, r)
		}
	}
	c := newClient(t, http.HandlerFunc(h), &fakeAuth{token: "tok"})
	ctx := context.Background()

	page, err := c.ListUsers(ctx, users.ListFilter{Page: 2, Limit: 5, Role: "null", Search: " ali "})
	require.NoError(t, err)
	require.Equal(t, "/users?limit=5&page=2&search=ali", lastURI)
	require.Len(t, page.Users, 1)
	require.Equal(t, 6, page.Pagination.Total)

	u, err := c.GetUser(ctx, "u/1")
	require.NoError(t, err)
	require.Equal(t, "/users/u%2F1", lastURI)
	require.Equal(t, "Ali", u.Name)

	_, err = c.CreateUser(ctx, users.Input{Name: "Ali"})
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, lastMethod)

	_, err = c.UpdateUser(ctx, "u1", users.Input{Name: "Ali"})
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, lastMethod)
	require.Equal(t, "/users/u1", lastURI)

	require.NoError(t, c.DeleteUser(ctx, "u1"))
	require.Equal(t, http.MethodDelete, lastMethod)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 6, stats.TotalUsers)
	require.Equal(t, 3, stats.Departments)

	meta, err := c.Metadata(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"admin", "user"}, meta.Roles)
}

func TestListUsersEmptyPage(t *testing.T) {
	c := newClient(t, respond(200, `{"success":true,"data":{"users":null,"pagination":{"page":1,"limit":10,"total":0}}}`), nil)

	page, err := c.ListUsers(context.Background(), users.ListFilter{})
	require.NoError(t, err)
	require.NotNil(t, page.Users)
	require.Empty(t, page.Users)
}

func TestEndpointErrorsAreTyped(t *testing.T) {
	c := newClient(t, respond(http.StatusNotFound, `{"success":false,"message":"User not found"}`), nil)

	_, err := c.GetUser(context.Background(), "missing")
	var serr *gateway.ServerError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, http.StatusNotFound, serr.Status)
	require.Equal(t, "User not found", serr.Message)
}
