package session

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

// Result is the outcome of a user-facing session operation. Error holds a
// display message; Err keeps the underlying error for callers that branch
// on it.
type Result struct {
	Success bool
	User    *User
	Error   string
	Err     error
}

// Snapshot is a consistent read of the session state.
type Snapshot struct {
	Authenticated bool
	User          *User
	// AccessToken is set only when Authenticated.
	AccessToken      string
	PendingHydration bool
	Loading          bool
	LastError        string
}

// run executes a user-facing operation. It maintains the loading counter and
// the last error, converts panics into failures and never lets loading stay
// raised after fn returns.
func (m *Manager) run(ctx context.Context, op, fallback string, fn func(context.Context) (*User, error)) (res Result) {
	started := m.now()

	m.mu.Lock()
	m.loading++
	m.lastErr = ""
	m.mu.Unlock()
	m.notify()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrPanic, r)
			res = Result{Err: err, Error: fallback}
		}

		m.mu.Lock()
		m.loading--
		if !res.Success {
			m.lastErr = res.Error
		}
		m.mu.Unlock()
		m.notify()

		attrs := []any{logger.Event(op), logger.Duration(m.now().Sub(started))}
		if res.Err != nil {
			m.log.WarnContext(ctx, "session operation failed", append(attrs, logger.Error(res.Err))...)
		} else {
			m.log.DebugContext(ctx, "session operation completed", attrs...)
		}
	}()

	user, err := fn(ctx)
	if err != nil {
		return Result{Err: err, Error: displayMessage(err, fallback)}
	}
	return Result{Success: true, User: user}
}

// IsAuthenticated reports whether a user and an access token are held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.user != nil && m.state.access != ""
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.user.Clone()
}

// AccessToken returns the access token of an authenticated session, or "".
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.user == nil {
		return ""
	}
	return m.state.access
}

func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.refresh
}

// Loading reports whether a user-facing operation is in flight.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading > 0
}

// LastError returns the display message of the most recent failed operation.
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// HasPermission reports whether the signed-in user holds name. It is false
// without a user.
func (m *Manager) HasPermission(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.user.HasPermission(name)
}

func (m *Manager) IsAdmin() bool {
	return m.Role() == RoleAdmin
}

// Role returns the role of the signed-in user, or "".
func (m *Manager) Role() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.user == nil {
		return ""
	}
	return m.state.user.Role
}

// Snapshot returns the whole state under one lock.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{
		User:             m.state.user.Clone(),
		PendingHydration: m.state.user == nil && m.state.pending != "",
		Loading:          m.loading > 0,
		LastError:        m.lastErr,
	}
	if m.state.user != nil && m.state.access != "" {
		s.Authenticated = true
		s.AccessToken = m.state.access
	}
	return s
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs synchronously on the goroutine that made the change, after the
// session locks are released, so it may call back into the Manager. The
// returned func removes the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.listenersMu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn
	m.listenersMu.Unlock()

	return func() {
		m.listenersMu.Lock()
		delete(m.listeners, id)
		m.listenersMu.Unlock()
	}
}

func (m *Manager) notify() {
	m.listenersMu.Lock()
	if len(m.listeners) == 0 {
		m.listenersMu.Unlock()
		return
	}
	fns := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenersMu.Unlock()

	snap := m.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}
