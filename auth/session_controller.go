package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-user-admin/internal/errors"
	"github.com/jrsteele09/go-user-admin/sessions"
	"github.com/jrsteele09/go-user-admin/token"
	"github.com/jrsteele09/go-user-admin/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultCheckInterval is how often an authenticated session re-checks its token's expiry.
const DefaultCheckInterval = 60 * time.Second

// LoginClient exchanges credentials for a token and user profile.
type LoginClient interface {
	Login(ctx context.Context, creds users.Credentials) (*users.LoginResult, error)
}

// SessionController owns the client session. It is the only writer of the session repo;
// everything else reads the session through Token, Snapshot or a listener.
type SessionController struct {
	repo          sessions.Repo    // persisted token and user
	client        LoginClient      // POST /login
	nowTime       func() time.Time // nowTime function (injectable for testing)
	skew          time.Duration
	checkInterval time.Duration
	scheduler     Scheduler

	mu         sync.Mutex
	state      State
	token      string
	claims     *token.Claims
	user       *users.User
	generation uint64 // bumped on every transition and on logout
	stopCheck  func()
	restored   bool
	closed     bool
	ready      chan struct{}
	listeners  map[int]func(Change)
	nextID     int

	// changes are delivered in commit order, one at a time
	notifyMu   sync.Mutex
	notifyTurn *sync.Cond
	nextSeq    uint64
	delivered  uint64
}

// SessionControllerOption defines a function type to modify the SessionController instance.
type SessionControllerOption func(*SessionController)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionControllerOption {
	return func(sc *SessionController) {
		sc.nowTime = nowFunc
	}
}

// WithSkew sets how long before exp a token is treated as expired.
func WithSkew(skew time.Duration) SessionControllerOption {
	return func(sc *SessionController) {
		if skew >= 0 {
			sc.skew = skew
		}
	}
}

// WithCheckInterval sets the period of the expiry check.
func WithCheckInterval(d time.Duration) SessionControllerOption {
	return func(sc *SessionController) {
		if d > 0 {
			sc.checkInterval = d
		}
	}
}

// WithScheduler replaces the ticker based scheduler.
func WithScheduler(s Scheduler) SessionControllerOption {
	return func(sc *SessionController) {
		if s != nil {
			sc.scheduler = s
		}
	}
}

// WithListener subscribes fn before the first transition, so the restore is not missed.
func WithListener(fn func(Change)) SessionControllerOption {
	return func(sc *SessionController) {
		sc.addListener(fn)
	}
}

// NewSessionController creates a controller in the Loading state. Call Restore to leave it.
func NewSessionController(repo sessions.Repo, client LoginClient, options ...SessionControllerOption) (*SessionController, error) {
	if repo == nil {
		return nil, errors.New("[NewSessionController] session repo is required")
	}
	if client == nil {
		return nil, errors.New("[NewSessionController] login client is required")
	}

	sc := &SessionController{
		repo:          repo,
		client:        client,
		nowTime:       token.NowTimeFunc,
		skew:          token.DefaultSkew,
		checkInterval: DefaultCheckInterval,
		scheduler:     TickerScheduler{},
		state:         StateLoading,
		ready:         make(chan struct{}),
		listeners:     map[int]func(Change){},
	}
	sc.notifyTurn = sync.NewCond(&sc.notifyMu)

	for _, opt := range options {
		opt(sc)
	}

	return sc, nil
}

// Subscribe registers fn for every future transition and returns a function that removes it.
// Listeners run synchronously. They may read the session but must not call Restore, Login,
// Logout, Rejected or Close, nor send requests through the gateway.
func (sc *SessionController) Subscribe(fn func(Change)) (unsubscribe func()) {
	sc.mu.Lock()
	id := sc.addListener(fn)
	sc.mu.Unlock()

	return func() {
		sc.mu.Lock()
		defer sc.mu.Unlock()
		delete(sc.listeners, id)
	}
}

func (sc *SessionController) addListener(fn func(Change)) int {
	id := sc.nextID
	sc.nextID++
	if fn != nil {
		sc.listeners[id] = fn
	}
	return id
}

// Ready is closed once the controller has left Loading.
func (sc *SessionController) Ready() <-chan struct{} {
	return sc.ready
}

// Restore loads the persisted session. Once it has succeeded later calls return
// ErrAlreadyRestored. A stored token that cannot be decoded or is expired, or a corrupted
// record, is cleared. Any other read failure is returned and leaves the controller Loading.
func (sc *SessionController) Restore(ctx context.Context) error {
	sc.mu.Lock()
	if sc.restored {
		sc.mu.Unlock()
		return errors.ErrAlreadyRestored
	}

	record, err := sc.repo.Get(ctx)
	switch {
	case errors.Is(err, sessions.ErrEmpty):
		log.Info().Msg("no stored session")

	case errors.Is(err, errors.ErrSessionStoreCorrupted):
		log.Err(err).Msg("[SessionController.Restore] stored session unreadable, clearing it")
		sc.deleteStored(ctx)

	case err != nil:
		// still Loading, the caller may retry
		sc.mu.Unlock()
		return errors.Wrapf(err, "[SessionController.Restore] read stored session")

	default:
		claims, verr := token.Validate(record.Token, sc.nowTime(), sc.skew)
		if verr != nil {
			log.Info().Str("reason", verr.Error()).Msg("stored session is no longer valid, clearing it")
			sc.deleteStored(ctx)
			break
		}
		user := record.User
		sc.authenticateLocked(record.Token, claims, &user)
	}

	sc.restored = true
	if sc.state == StateLoading {
		sc.state = StateAnonymous
		sc.generation++
	}
	close(sc.ready)

	change := sc.changeLocked(StateLoading, ReasonRestored, "")
	sc.commit(change)
	return nil
}

// Login exchanges credentials for a session. The network call runs without holding the
// controller lock; if the session moved on while it was in flight the result is discarded.
func (sc *SessionController) Login(ctx context.Context, creds users.Credentials) (*users.User, error) {
	sc.mu.Lock()
	switch sc.state {
	case StateLoading:
		sc.mu.Unlock()
		return nil, errors.ErrNotReady
	case StateAuthenticated:
		sc.mu.Unlock()
		return nil, errors.ErrAlreadyAuthenticated
	}
	generation := sc.generation
	sc.mu.Unlock()

	result, err := sc.client.Login(ctx, creds)
	if err != nil {
		log.Info().Str("email", creds.Email).Err(err).Msg("login failed")
		return nil, err
	}
	if result == nil || strings.TrimSpace(result.Token) == "" || result.User == nil {
		return nil, errors.ErrInvalidLoginResponse
	}

	claims, err := token.Validate(result.Token, sc.nowTime(), sc.skew)
	if err != nil {
		log.Warn().Str("email", creds.Email).Err(err).Msg("server issued an unusable token")
		return nil, errors.Wrapf(err, "[SessionController.Login] server token")
	}

	sc.mu.Lock()
	if sc.closed || sc.state != StateAnonymous || sc.generation != generation {
		sc.mu.Unlock()
		log.Info().Str("email", creds.Email).Msg("discarding login response, session changed while it was in flight")
		return nil, errors.ErrSessionChanged
	}

	user := *result.User
	if err := sc.repo.Upsert(ctx, sessions.Record{Token: result.Token, User: user}); err != nil {
		sc.mu.Unlock()
		return nil, errors.Wrapf(err, "[SessionController.Login] persist session")
	}
	sc.authenticateLocked(result.Token, claims, &user)

	change := sc.changeLocked(StateAnonymous, ReasonLoggedIn, "")
	sc.commit(change)

	out := user
	return &out, nil
}

// Logout ends the session. It also invalidates any login still in flight.
func (sc *SessionController) Logout(ctx context.Context) error {
	sc.mu.Lock()
	switch sc.state {
	case StateLoading:
		sc.mu.Unlock()
		return errors.ErrNotReady
	case StateAnonymous:
		sc.generation++
		sc.mu.Unlock()
		return nil
	}

	sc.clearLocked(ctx)
	change := sc.changeLocked(StateAuthenticated, ReasonLoggedOut, "")
	sc.commit(change)
	return nil
}

// Rejected is the forced logout signal from the gateway. It only acts when raw is the
// current token, so repeated or stale signals are ignored.
func (sc *SessionController) Rejected(raw string) {
	sc.mu.Lock()
	if sc.state != StateAuthenticated || raw == "" || raw != sc.token {
		sc.mu.Unlock()
		return
	}

	log.Warn().Str("subject", sc.claims.Subject).Msg("server rejected the session token")
	sc.clearLocked(context.Background())
	change := sc.changeLocked(StateAuthenticated, ReasonRejected, SessionExpiredMessage)
	sc.commit(change)
}

// Token implements oauth2.TokenSource. It fails with ErrNoSession unless authenticated, and
// expires the session on the spot if the token crossed its skewed expiry since the last check.
func (sc *SessionController) Token() (*oauth2.Token, error) {
	sc.mu.Lock()
	if sc.state != StateAuthenticated {
		sc.mu.Unlock()
		return nil, errors.ErrNoSession
	}
	if token.IsExpired(sc.claims, sc.nowTime(), sc.skew) {
		sc.expireLocked()
		return nil, errors.ErrNoSession
	}
	tok := &oauth2.Token{
		AccessToken: sc.token,
		TokenType:   "Bearer",
		Expiry:      sc.claims.Expiry(),
	}
	sc.mu.Unlock()
	return tok, nil
}

// Snapshot returns a copy of the current session.
func (sc *SessionController) Snapshot() Snapshot {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.snapshotLocked()
}

// State returns the current state.
func (sc *SessionController) State() State {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.state
}

// User returns a copy of the logged in user, nil when anonymous.
func (sc *SessionController) User() *users.User {
	return sc.Snapshot().User
}

// Close stops the expiry check. The persisted session is kept for the next Restore.
func (sc *SessionController) Close() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.closed = true
	sc.stopCheckLocked()
	return nil
}

// check runs on the scheduler. Callbacks started for an earlier session are ignored.
func (sc *SessionController) check(generation uint64) {
	sc.mu.Lock()
	if sc.closed || sc.generation != generation || sc.state != StateAuthenticated {
		sc.mu.Unlock()
		return
	}
	if !token.IsExpired(sc.claims, sc.nowTime(), sc.skew) {
		sc.mu.Unlock()
		return
	}
	sc.expireLocked()
}

// expireLocked ends the session on local expiry. It releases sc.mu.
func (sc *SessionController) expireLocked() {
	log.Info().
		Str("subject", sc.claims.Subject).
		Time("expires_at", sc.claims.Expiry()).
		Msg("session token expired")
	sc.clearLocked(context.Background())
	change := sc.changeLocked(StateAuthenticated, ReasonExpired, SessionExpiredMessage)
	sc.commit(change)
}

func (sc *SessionController) authenticateLocked(raw string, claims *token.Claims, user *users.User) {
	sc.state = StateAuthenticated
	sc.token = raw
	sc.claims = claims
	sc.user = user
	sc.generation++
	sc.startCheckLocked()

	log.Info().
		Str("subject", claims.Subject).
		Str("user_id", user.ID.String()).
		Time("expires_at", claims.Expiry()).
		Msg("session authenticated")
}

func (sc *SessionController) clearLocked(ctx context.Context) {
	sc.stopCheckLocked()
	sc.deleteStored(ctx)
	sc.state = StateAnonymous
	sc.token = ""
	sc.claims = nil
	sc.user = nil
	sc.generation++
}

// deleteStored clears the repo. A failure is logged; the in-memory session is cleared regardless.
func (sc *SessionController) deleteStored(ctx context.Context) {
	if err := sc.repo.Delete(ctx); err != nil {
		log.Err(err).Msg("[SessionController] failed to clear stored session")
	}
}

func (sc *SessionController) startCheckLocked() {
	sc.stopCheckLocked()
	if sc.closed {
		return
	}
	generation := sc.generation
	sc.stopCheck = sc.scheduler.Every(sc.checkInterval, func() {
		sc.check(generation)
	})
}

func (sc *SessionController) stopCheckLocked() {
	if sc.stopCheck != nil {
		sc.stopCheck()
		sc.stopCheck = nil
	}
}

func (sc *SessionController) snapshotLocked() Snapshot {
	snap := Snapshot{State: sc.state, Token: sc.token}
	if sc.user != nil {
		u := *sc.user
		snap.User = &u
	}
	if sc.claims != nil {
		snap.ExpiresAt = sc.claims.ExpiresAt
	}
	return snap
}

func (sc *SessionController) changeLocked(from State, reason Reason, message string) Change {
	return Change{
		From:     from,
		To:       sc.state,
		Reason:   reason,
		Message:  message,
		Snapshot: sc.snapshotLocked(),
	}
}

// commit releases sc.mu and delivers change to the listeners. Each change waits for the
// ones committed before it, so listeners see transitions in the order they happened.
func (sc *SessionController) commit(change Change) {
	listeners := make([]func(Change), 0, len(sc.listeners))
	for id := 0; id < sc.nextID; id++ {
		if fn, ok := sc.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	seq := sc.nextSeq
	sc.nextSeq++
	sc.mu.Unlock()

	sc.notifyMu.Lock()
	for sc.delivered != seq {
		sc.notifyTurn.Wait()
	}
	sc.notifyMu.Unlock()

	defer func() {
		sc.notifyMu.Lock()
		sc.delivered++
		sc.notifyTurn.Broadcast()
		sc.notifyMu.Unlock()
	}()

	log.Info().
		Str("from", change.From.String()).
		Str("to", change.To.String()).
		Str("reason", string(change.Reason)).
		Msg("session transition")

	for _, fn := range listeners {
		fn(change)
	}
}
