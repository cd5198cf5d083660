package session

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

// WithStore sets the persistence substrate. Defaults to an in-memory store.
func WithStore(store Store) Option {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.config = cfg
	}
}

// WithNavigator sets the router used for the post-logout redirect.
func WithNavigator(nav Navigator) Option {
	return func(m *Manager) {
		m.nav = nav
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithLoginPath overrides Config.LoginPath.
func WithLoginPath(path string) Option {
	return func(m *Manager) {
		if path != "" {
			m.config.LoginPath = path
		}
	}
}

// WithRefreshSkew overrides Config.RefreshSkew.
func WithRefreshSkew(d time.Duration) Option {
	return func(m *Manager) {
		m.config.RefreshSkew = d
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
