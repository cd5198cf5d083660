package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/authkit/pkg/apierror"
	"github.com/dmitrymomot/authkit/pkg/kvstore"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/tokeninfo"
)

// Manager owns the client-side session. It is safe for concurrent use.
type Manager struct {
	endpoints Endpoints
	store     Store
	nav       Navigator
	log       *slog.Logger
	config    Config
	now       func() time.Time

	// writeMu serializes state transitions so that the store and memory
	// are always updated in the same order.
	writeMu sync.Mutex

	mu      sync.RWMutex
	state   state
	epoch   uint64
	loading int
	lastErr string

	flight singleflight.Group

	listenersMu  sync.Mutex
	listeners    map[int]func(Snapshot)
	nextListener int

	background sync.WaitGroup
}

// state is the in-memory session. user and access are set and cleared
// together; pending holds a persisted token whose profile is not loaded yet.
type state struct {
	user    *User
	access  string
	refresh string
	pending string
}

func (s state) empty() bool {
	return s == state{}
}

// New creates a session manager. The session starts empty; call Initialize
// to restore a persisted one.
func New(endpoints Endpoints, opts ...Option) (*Manager, error) {
	if endpoints == nil {
		return nil, ErrNoEndpoints
	}

	m := &Manager{
		endpoints: endpoints,
		config:    DefaultConfig(),
		log:       logger.Discard(),
		now:       time.Now,
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = kvstore.NewMemory()
	}
	if m.config.LoginPath == "" {
		m.config.LoginPath = DefaultConfig().LoginPath
	}
	if m.config.ReturnParam == "" {
		m.config.ReturnParam = DefaultConfig().ReturnParam
	}
	if m.config.LogoutNotifyTimeout <= 0 {
		m.config.LogoutNotifyTimeout = DefaultConfig().LogoutNotifyTimeout
	}
	m.log = m.log.With(logger.Component("session"))
	return m, nil
}

// Close waits for background server notifications to finish.
func (m *Manager) Close() error {
	m.background.Wait()
	return nil
}

// Initialize restores the persisted session. It makes no network call and
// is idempotent. A persisted token without a user is kept as pending
// hydration; a user without a token is discarded. A user value that cannot
// be decoded clears the session and returns an error wrapping
// ErrCorruptState.
func (m *Manager) Initialize(ctx context.Context) error {
	changed, err := m.restore(ctx)
	if changed {
		m.notify()
	}
	return err
}

// restore loads the persisted state under writeMu and reports whether the
// in-memory session changed.
func (m *Manager) restore(ctx context.Context) (bool, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	rawUser, hasUser, err := m.store.Get(ctx, KeyUser)
	if err != nil {
		return false, fmt.Errorf("session: read %s: %w", KeyUser, err)
	}
	token, hasToken, err := m.store.Get(ctx, KeyToken)
	if err != nil {
		return false, fmt.Errorf("session: read %s: %w", KeyToken, err)
	}
	refresh, _, err := m.store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return false, fmt.Errorf("session: read %s: %w", KeyRefreshToken, err)
	}

	var next state
	switch {
	case !hasToken || token == "":
		if hasUser || refresh != "" {
			m.log.InfoContext(ctx, "discarding persisted session without token", logger.Event("initialize"))
			_, had := m.purgeLocked(ctx)
			return had, nil
		}
	case !hasUser || rawUser == "":
		next = state{pending: token, refresh: refresh}
	default:
		var user *User
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user == nil {
			if err == nil {
				err = errors.New("null user")
			}
			m.log.WarnContext(ctx, "persisted session is corrupt", logger.Event("initialize"), logger.Error(err))
			_, had := m.purgeLocked(ctx)
			return had, errors.Join(ErrCorruptState, err)
		}
		next = state{user: user, access: token, refresh: refresh}
	}

	m.mu.Lock()
	changed := !sameSession(m.state, next)
	m.state = next
	if changed {
		m.epoch++
	}
	m.mu.Unlock()
	return changed, nil
}

func sameSession(a, b state) bool {
	return a.access == b.access && a.refresh == b.refresh && a.pending == b.pending && (a.user == nil) == (b.user == nil)
}

// Login authenticates with the server and installs the returned session.
func (m *Manager) Login(ctx context.Context, p LoginParams) Result {
	return m.run(ctx, "login", "Login failed, please try again", func(ctx context.Context) (*User, error) {
		resp, err := m.endpoints.Login(ctx, p)
		if err != nil {
			return nil, err
		}
		if resp == nil || resp.User == nil || resp.Token == "" {
			return nil, fmt.Errorf("%w: login response without user or token", ErrInvalidResponse)
		}
		if err := m.install(ctx, resp.User, resp.Token, resp.RefreshToken); err != nil {
			return nil, err
		}
		m.log.InfoContext(ctx, "signed in", logger.Event("login"), logger.UserID(resp.User.ID))
		return resp.User.Clone(), nil
	})
}

// Register creates an account. It does not sign in.
func (m *Manager) Register(ctx context.Context, p RegisterParams) Result {
	return m.run(ctx, "register", "Registration failed, please try again", func(ctx context.Context) (*User, error) {
		return nil, m.endpoints.Register(ctx, p)
	})
}

// ResetPassword sets a new password with a verification code. It does not
// sign in.
func (m *Manager) ResetPassword(ctx context.Context, p ResetPasswordParams) Result {
	return m.run(ctx, "reset_password", "Password reset failed, please try again", func(ctx context.Context) (*User, error) {
		return nil, m.endpoints.ResetPassword(ctx, p)
	})
}

// SendVerificationCode asks the server to email a code for purpose.
func (m *Manager) SendVerificationCode(ctx context.Context, email string, purpose CodePurpose) Result {
	return m.run(ctx, "send_verification_code", "Failed to send verification code", func(ctx context.Context) (*User, error) {
		return nil, m.endpoints.SendVerificationCode(ctx, SendCodeParams{Email: email, Purpose: purpose})
	})
}

// InviteCheck is the outcome of VerifyInviteCode.
type InviteCheck struct {
	Success bool
	Valid   bool
	Message string
}

// VerifyInviteCode checks an invite code. Failures are reported as an
// invalid code.
func (m *Manager) VerifyInviteCode(ctx context.Context, code string) InviteCheck {
	var status *InviteStatus
	err := m.guarded(func() error {
		var err error
		status, err = m.endpoints.VerifyInviteCode(ctx, code)
		return err
	})
	if err != nil {
		return InviteCheck{Message: displayMessage(err, "Failed to verify invite code")}
	}
	if status == nil {
		return InviteCheck{Success: true}
	}
	return InviteCheck{Success: true, Valid: status.Valid, Message: status.Message}
}

// EmailCheck is the outcome of CheckEmailExists.
type EmailCheck struct {
	Success bool
	Exists  bool
	Message string
}

// CheckEmailExists reports whether an account uses email. Failures report
// Exists=false with Success=false.
func (m *Manager) CheckEmailExists(ctx context.Context, email string) EmailCheck {
	var status *EmailStatus
	err := m.guarded(func() error {
		var err error
		status, err = m.endpoints.CheckEmailExists(ctx, email)
		return err
	})
	if err != nil {
		return EmailCheck{Message: displayMessage(err, "Failed to check email")}
	}
	return EmailCheck{Success: true, Exists: status != nil && status.Exists}
}

// RefreshUserInfo reloads the profile for the held token. Without a token it
// does nothing and reports ErrNotAuthenticated. When the profile cannot be
// loaded the session is considered invalid and Logout runs.
func (m *Manager) RefreshUserInfo(ctx context.Context) Result {
	m.mu.RLock()
	token, epoch := m.state.access, m.epoch
	if token == "" {
		token = m.state.pending
	}
	m.mu.RUnlock()

	if token == "" {
		return Result{Err: ErrNotAuthenticated, Error: "not signed in"}
	}

	return m.run(ctx, "refresh_user_info", "Failed to load user profile", func(ctx context.Context) (*User, error) {
		user, err := m.fetchUser(ctx, token)
		if err != nil {
			m.endSession(ctx, func(_ state, e uint64) bool { return e == epoch }, false)
			return nil, err
		}
		if err := m.applyUser(ctx, user, token, epoch); err != nil {
			return nil, err
		}
		return user.Clone(), nil
	})
}

// NeedsHydration reports whether a persisted token is held without a loaded
// profile.
func (m *Manager) NeedsHydration() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.user == nil && m.state.pending != ""
}

// HydrateUser loads the profile for a pending token. On failure the session
// is cleared without a redirect and an error wrapping ErrHydrationFailed is
// returned. Concurrent calls share one request.
func (m *Manager) HydrateUser(ctx context.Context) error {
	m.mu.RLock()
	token, epoch := m.state.pending, m.epoch
	m.mu.RUnlock()
	if token == "" {
		return nil
	}

	_, err, _ := m.flight.Do("hydrate:"+token, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		user, err := m.fetchUser(ctx, token)
		if err != nil {
			m.writeMu.Lock()
			m.mu.RLock()
			current := m.epoch == epoch && m.state.pending == token
			m.mu.RUnlock()
			var had bool
			if current {
				_, had = m.purgeLocked(ctx)
			}
			m.writeMu.Unlock()
			if had {
				m.notify()
			}
			m.log.InfoContext(ctx, "persisted token rejected", logger.Event("hydrate"), logger.Error(err))
			return nil, errors.Join(ErrHydrationFailed, err)
		}
		return nil, m.applyUser(ctx, user, token, epoch)
	})
	return err
}

func (m *Manager) fetchUser(ctx context.Context, token string) (*User, error) {
	var user *User
	err := m.guarded(func() error {
		var err error
		user, err = m.endpoints.UserInfo(ctx, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: empty user profile", ErrInvalidResponse)
	}
	return user, nil
}

// applyUser stores a freshly loaded profile if the session it was loaded
// for is still current.
func (m *Manager) applyUser(ctx context.Context, user *User, token string, epoch uint64) error {
	if err := m.storeUser(ctx, user, token, epoch); err != nil {
		return err
	}
	m.notify()
	return nil
}

func (m *Manager) storeUser(ctx context.Context, user *User, token string, epoch uint64) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	st, current := m.state, m.epoch == epoch
	m.mu.RUnlock()
	if !current || (st.access != token && st.pending != token) {
		return ErrSessionChanged
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return errors.Join(ErrPersist, err)
	}
	if err := m.store.Set(ctx, KeyUser, string(raw)); err != nil {
		m.log.WarnContext(ctx, "failed to persist user profile", logger.Error(err))
		return errors.Join(ErrPersist, err)
	}

	m.mu.Lock()
	m.state = state{user: user.Clone(), access: token, refresh: st.refresh}
	m.mu.Unlock()
	return nil
}

// RefreshAccessToken exchanges the refresh token for a new access token.
// Concurrent callers share a single refresh request and its outcome. On
// failure the session is ended.
func (m *Manager) RefreshAccessToken(ctx context.Context) Result {
	if _, err := m.refresh(ctx); err != nil {
		return Result{Err: err, Error: displayMessage(err, "Session expired, please sign in again")}
	}
	return Result{Success: true, User: m.User()}
}

// refresh joins or starts the exchange of the current refresh token. Calls
// share a flight only when they exchange the same token.
func (m *Manager) refresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	refreshToken, epoch := m.state.refresh, m.epoch
	m.mu.RUnlock()
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	ch := m.flight.DoChan("refresh:"+refreshToken, func() (any, error) {
		return m.doRefresh(context.WithoutCancel(ctx), refreshToken, epoch)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (m *Manager) doRefresh(ctx context.Context, refreshToken string, epoch uint64) (string, error) {
	var pair *TokenPair
	err := m.guarded(func() error {
		var err error
		pair, err = m.endpoints.RefreshToken(ctx, refreshToken)
		return err
	})
	if err == nil && (pair == nil || pair.AccessToken == "") {
		err = fmt.Errorf("%w: refresh response without token", ErrInvalidResponse)
	}
	if err != nil {
		m.log.WarnContext(ctx, "token refresh failed", logger.Event("refresh"), logger.Error(err))
		m.endSession(ctx, func(st state, e uint64) bool {
			return e == epoch && st.refresh == refreshToken
		}, true)
		return "", errors.Join(ErrRefreshFailed, err)
	}

	if err := m.storeRefreshed(ctx, pair, refreshToken, epoch); err != nil {
		return "", err
	}
	m.notify()
	m.log.InfoContext(ctx, "access token refreshed", logger.Event("refresh"))
	return pair.AccessToken, nil
}

// storeRefreshed persists and swaps in a refreshed token pair if the session
// still holds refreshToken.
func (m *Manager) storeRefreshed(ctx context.Context, pair *TokenPair, refreshToken string, epoch uint64) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	st, current := m.state, m.epoch == epoch
	m.mu.RUnlock()
	if !current || st.refresh != refreshToken {
		return ErrSessionChanged
	}

	if err := m.store.Set(ctx, KeyToken, pair.AccessToken); err != nil {
		m.log.WarnContext(ctx, "failed to persist refreshed token", logger.Error(err))
		return errors.Join(ErrPersist, err)
	}
	if pair.RefreshToken != "" {
		if err := m.store.Set(ctx, KeyRefreshToken, pair.RefreshToken); err != nil {
			m.log.WarnContext(ctx, "failed to persist rotated refresh token", logger.Error(err))
			return errors.Join(ErrPersist, err)
		}
		st.refresh = pair.RefreshToken
	}
	if st.user != nil {
		st.access = pair.AccessToken
	} else {
		st.pending = pair.AccessToken
	}

	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
	return nil
}

// Token returns the access token to attach to a call, refreshing it first
// when it is a JWT that expires within the configured skew.
func (m *Manager) Token(ctx context.Context) string {
	_ = m.EnsureFresh(ctx)
	return m.AccessToken()
}

// EnsureFresh refreshes the access token when it expires within the
// refresh skew. Opaque tokens are left alone.
func (m *Manager) EnsureFresh(ctx context.Context) error {
	m.mu.RLock()
	access, hasRefresh := m.state.access, m.state.refresh != ""
	m.mu.RUnlock()

	if access == "" || !hasRefresh || m.config.RefreshSkew <= 0 {
		return nil
	}
	if !tokeninfo.ExpiresWithin(access, m.config.RefreshSkew, m.now()) {
		return nil
	}
	_, err := m.refresh(ctx)
	return err
}

// HandleUnauthorized reacts to a 401 received for failedToken. It returns
// true when the call should be re-sent with the current token: the token was
// already replaced, or a refresh succeeded. Otherwise the session is ended
// and the user is redirected to login with the current path preserved.
// Concurrent calls for the same token share one outcome, so the session is
// ended at most once.
func (m *Manager) HandleUnauthorized(ctx context.Context, failedToken string) bool {
	v, _, _ := m.flight.Do("unauthorized:"+failedToken, func() (any, error) {
		ctx := context.WithoutCancel(ctx)

		m.mu.RLock()
		current, hasRefresh := m.state.access, m.state.refresh != ""
		m.mu.RUnlock()

		switch {
		case current == "":
			return false, nil
		case current != failedToken:
			return true, nil
		case !hasRefresh:
			m.log.InfoContext(ctx, "session expired", logger.Event("unauthorized"))
			m.endSession(ctx, func(st state, _ uint64) bool { return st.access == failedToken }, true)
			return false, nil
		}

		_, err := m.refresh(ctx)
		return err == nil, nil
	})
	ok, _ := v.(bool)
	return ok
}

// Logout ends the session locally, notifies the server in the background
// and redirects to the login path unless already there. Calling it without
// a session only performs the redirect check.
func (m *Manager) Logout(ctx context.Context) {
	m.endSession(ctx, func(state, uint64) bool { return true }, false)
}

// ClearSession drops the session locally and in the store without a server
// call or redirect.
func (m *Manager) ClearSession(ctx context.Context) {
	m.writeMu.Lock()
	_, had := m.purgeLocked(ctx)
	m.writeMu.Unlock()
	if had {
		m.notify()
	}
}

// endSession purges the session if cond holds for the current state, then
// notifies the server and redirects. It reports whether cond held.
func (m *Manager) endSession(ctx context.Context, cond func(st state, epoch uint64) bool, preserveReturn bool) bool {
	m.writeMu.Lock()
	m.mu.RLock()
	ok := cond(m.state, m.epoch)
	m.mu.RUnlock()
	if !ok {
		m.writeMu.Unlock()
		return false
	}
	token, had := m.purgeLocked(ctx)
	m.writeMu.Unlock()

	if had {
		m.log.InfoContext(ctx, "signed out", logger.Event("logout"))
		m.notify()
	}
	if token != "" {
		m.notifyServer(ctx, token)
	}
	m.redirectToLogin(preserveReturn)
	return true
}

// install persists and activates a new session. The refresh token is
// replaced as a whole; an empty one removes the persisted value. On a
// persistence failure every key is purged and nothing is activated.
func (m *Manager) install(ctx context.Context, user *User, access, refresh string) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return errors.Join(ErrPersist, err)
	}

	changed, err := m.persistSession(ctx, raw, user, access, refresh)
	if changed {
		m.notify()
	}
	return err
}

func (m *Manager) persistSession(ctx context.Context, raw []byte, user *User, access, refresh string) (changed bool, err error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	err = m.store.Set(ctx, KeyUser, string(raw))
	if err == nil {
		err = m.store.Set(ctx, KeyToken, access)
	}
	if err == nil {
		if refresh != "" {
			err = m.store.Set(ctx, KeyRefreshToken, refresh)
		} else {
			err = m.store.Delete(ctx, KeyRefreshToken)
		}
	}
	if err != nil {
		m.log.WarnContext(ctx, "failed to persist session", logger.Error(err))
		_, had := m.purgeLocked(ctx)
		return had, errors.Join(ErrPersist, err)
	}

	m.mu.Lock()
	m.state = state{user: user.Clone(), access: access, refresh: refresh}
	m.epoch++
	m.mu.Unlock()
	return true, nil
}

// purgeLocked clears the store and memory. The caller holds writeMu. It
// returns the token that was in use and whether there was any state.
func (m *Manager) purgeLocked(ctx context.Context) (string, bool) {
	if err := m.store.Delete(ctx, KeyUser, KeyToken, KeyRefreshToken); err != nil {
		m.log.WarnContext(ctx, "failed to purge persisted session", logger.Error(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.state
	if prev.empty() {
		return "", false
	}
	m.state = state{}
	m.epoch++
	token := prev.access
	if token == "" {
		token = prev.pending
	}
	return token, true
}

func (m *Manager) notifyServer(ctx context.Context, token string) {
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.config.LogoutNotifyTimeout)
		defer cancel()
		if err := m.guarded(func() error { return m.endpoints.Logout(ctx, token) }); err != nil {
			m.log.DebugContext(ctx, "server logout notification failed", logger.Event("logout"), logger.Error(err))
		}
	}()
}

func (m *Manager) redirectToLogin(preserveReturn bool) {
	if m.nav == nil {
		return
	}
	current := m.nav.CurrentPath()
	currentPath, _, _ := strings.Cut(current, "?")
	if currentPath == m.config.LoginPath {
		return
	}
	target := m.config.LoginPath
	if preserveReturn && current != "" && current != "/" {
		target += "?" + url.Values{m.config.ReturnParam: {current}}.Encode()
	}
	m.nav.Replace(target)
}

// guarded runs fn and converts a panic into an error.
func (m *Manager) guarded(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}

func displayMessage(err error, fallback string) string {
	if apiErr, ok := apierror.As(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
