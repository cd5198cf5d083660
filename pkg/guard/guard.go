package guard

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

// Session is the view of the session the guard decides on.
type Session interface {
	IsAuthenticated() bool
	// NeedsHydration reports a persisted credential whose profile is not
	// loaded yet.
	NeedsHydration() bool
	// HydrateUser loads the profile. On failure the session is cleared.
	HydrateUser(ctx context.Context) error
}

// Action is the outcome kind of a decision.
type Action uint8

const (
	Allow Action = iota + 1
	Redirect
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating one transition.
type Decision struct {
	Action Action
	// Route is the destination's route, or the not-found route.
	Route Route
	// Location is where navigation goes: the destination itself on Allow.
	Location string
	// ReturnPath is the interrupted destination carried to the login page.
	ReturnPath string

	returnParam string
}

// URL renders Location with the return path as a query parameter.
func (d Decision) URL() string {
	if d.ReturnPath == "" {
		return d.Location
	}
	param := d.returnParam
	if param == "" {
		param = "redirect"
	}
	sep := "?"
	if strings.Contains(d.Location, "?") {
		sep = "&"
	}
	return d.Location + sep + url.Values{param: {d.ReturnPath}}.Encode()
}

// Guard decides whether a navigation may proceed. It keeps no state between
// decisions.
type Guard struct {
	routes      *Routes
	session     Session
	loginPath   string
	homePath    string
	returnParam string
	log         *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

func WithLoginPath(path string) Option {
	return func(g *Guard) {
		if path != "" {
			g.loginPath = path
		}
	}
}

// WithHomePath sets the landing destination for authenticated users sent
// away from guest-only routes.
func WithHomePath(path string) Option {
	return func(g *Guard) {
		if path != "" {
			g.homePath = path
		}
	}
}

func WithReturnParam(name string) Option {
	return func(g *Guard) {
		if name != "" {
			g.returnParam = name
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.log = l
		}
	}
}

// New creates a guard over routes and session.
func New(routes *Routes, session Session, opts ...Option) *Guard {
	if routes == nil {
		panic("guard: nil routes")
	}
	if session == nil {
		panic("guard: nil session")
	}
	g := &Guard{
		routes:      routes,
		session:     session,
		loginPath:   "/login",
		homePath:    "/",
		returnParam: "redirect",
		log:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(logger.Component("guard"))
	return g
}

// Decide evaluates a transition to destination, a path with an optional
// query. A persisted credential without a profile is hydrated first; if
// that fails the session has been cleared and the decision is made as
// unauthenticated.
func (g *Guard) Decide(ctx context.Context, destination string) Decision {
	if destination == "" {
		destination = "/"
	}
	route, _, _ := g.routes.Match(destination)

	if g.session.NeedsHydration() {
		if err := g.session.HydrateUser(ctx); err != nil {
			g.log.InfoContext(ctx, "session hydration failed, continuing as guest",
				logger.Path(destination), logger.Error(err))
		}
	}
	authenticated := g.session.IsAuthenticated()

	d := Decision{Action: Allow, Route: route, Location: destination, returnParam: g.returnParam}
	switch {
	case route.RequiresAuth && !authenticated:
		d.Action = Redirect
		d.Location = g.loginPath
		d.ReturnPath = destination
	case route.GuestOnly && authenticated:
		d.Action = Redirect
		d.Location = g.homePath
	}

	if d.Action == Redirect {
		g.log.DebugContext(ctx, "navigation redirected",
			logger.Path(destination), slog.String("location", d.URL()))
	}
	return d
}

// AfterLogin returns where to go once the user signed in from a login URL
// carrying the return parameter. Unsafe or missing return paths fall back to
// the home path.
func (g *Guard) AfterLogin(loginURL string) string {
	var raw string
	if u, err := url.Parse(loginURL); err == nil {
		raw = u.Query().Get(g.returnParam)
	}
	return SafeReturnPath(raw, g.homePath)
}

// SafeReturnPath returns raw when it is a same-origin absolute path, and
// fallback otherwise. Scheme-qualified, protocol-relative and backslash
// forms are rejected.
func SafeReturnPath(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return fallback
	}
	if strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, "\\\r\n\t") {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return raw
}
