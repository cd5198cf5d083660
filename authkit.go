package authkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/authkit/pkg/apierror"
	"github.com/dmitrymomot/authkit/pkg/authapi"
	"github.com/dmitrymomot/authkit/pkg/guard"
	"github.com/dmitrymomot/authkit/pkg/httpclient"
	"github.com/dmitrymomot/authkit/pkg/kvstore"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/requestid"
	"github.com/dmitrymomot/authkit/pkg/session"
)

// DefaultRoutes is the route table used when Config.RoutesFile is empty.
func DefaultRoutes() []guard.Route {
	return []guard.Route{
		{Path: "/", Name: "home"},
		{Path: "/profile", Name: "profile", RequiresAuth: true},
		{Path: "/message", Name: "message", RequiresAuth: true},
		{Path: "/splash", Name: "splash"},
		{Path: "/login", Name: "login", GuestOnly: true},
	}
}

// Kit is the composed client: one session manager shared by the request
// pipeline and the navigation guard.
type Kit struct {
	Config Config
	Logger *slog.Logger
	Store  session.Store
	// API is the authenticated pipeline for application calls.
	API *httpclient.Client
	// Auth is the authentication API the session is driven through.
	Auth      *authapi.API
	Session   *session.Manager
	Routes    *guard.Routes
	Guard     *guard.Guard
	Navigator guard.Navigator

	closers []func() error
}

// Option customizes New.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	store      session.Store
	navigator  guard.Navigator
	httpClient *http.Client
	routes     *guard.Routes
	preSend    []httpclient.PreSendFunc
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStore uses store instead of the one selected by Config.Store.
func WithStore(store session.Store) Option {
	return func(o *options) { o.store = store }
}

// WithNavigator sets the view router. Defaults to a MemoryNavigator at "/".
func WithNavigator(nav guard.Navigator) Option {
	return func(o *options) { o.navigator = nav }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithRoutes uses routes instead of the default or configured table.
func WithRoutes(routes *guard.Routes) Option {
	return func(o *options) { o.routes = routes }
}

// WithPreSend adds request transforms run on every call after the built-ins.
func WithPreSend(fns ...httpclient.PreSendFunc) Option {
	return func(o *options) { o.preSend = append(o.preSend, fns...) }
}

// New composes the kit and restores the persisted session. A corrupt
// persisted session, or a session file that is not valid JSON, is cleared
// and logged; it does not fail New.
func New(ctx context.Context, cfg Config, opts ...Option) (*Kit, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger
	if log == nil {
		log = logger.New(
			logger.WithEnvironment(cfg.Env, cfg.ServiceName),
			logger.WithContextExtractors(requestid.LoggerExtractor()),
		)
	}

	k := &Kit{Config: cfg, Logger: log, Navigator: o.navigator}
	if k.Navigator == nil {
		k.Navigator = guard.NewMemoryNavigator("/")
	}

	store := o.store
	if store == nil {
		var err error
		if store, err = k.openStore(ctx); err != nil {
			return nil, err
		}
	}
	k.Store = store

	classifier := apierror.NewClassifier(apierror.WithMessages(apierror.MessagesFor(cfg.Locale)))

	base, err := httpclient.New(cfg.APIBaseURL,
		httpclient.WithHTTPClient(o.httpClient),
		httpclient.WithDefaultTimeout(cfg.HTTPTimeout),
		httpclient.WithLogger(log),
		httpclient.WithClassifier(classifier),
		httpclient.WithDefaultRetry(cfg.DefaultRetry),
		httpclient.WithBackoff(httpclient.ExponentialBackoff{
			InitialInterval: cfg.RetryBaseDelay,
			MaxInterval:     cfg.RetryMaxDelay,
			Multiplier:      2,
		}),
		httpclient.WithPreSend(o.preSend...),
	)
	if err != nil {
		k.Close()
		return nil, err
	}
	k.Auth = authapi.New(base)

	mgr, err := session.New(k.Auth,
		session.WithStore(store),
		session.WithConfig(cfg.Session),
		session.WithNavigator(k.Navigator),
		session.WithLogger(log),
	)
	if err != nil {
		k.Close()
		return nil, err
	}
	k.Session = mgr
	k.closers = append(k.closers, mgr.Close)
	k.API = base.Authenticated(mgr)

	routes := o.routes
	if routes == nil {
		if routes, err = loadRoutes(cfg); err != nil {
			k.Close()
			return nil, err
		}
	}
	k.Routes = routes
	k.Guard = guard.New(routes, mgr,
		guard.WithLoginPath(cfg.Session.LoginPath),
		guard.WithHomePath(cfg.HomePath),
		guard.WithReturnParam(cfg.Session.ReturnParam),
		guard.WithLogger(log),
	)

	if err := mgr.Initialize(ctx); err != nil {
		if !errors.Is(err, session.ErrCorruptState) {
			k.Close()
			return nil, err
		}
		log.WarnContext(ctx, "persisted session was corrupt and has been cleared", logger.Error(err))
	}
	return k, nil
}

// Navigate runs the guard for destination and moves the navigator.
func (k *Kit) Navigate(ctx context.Context, destination string) guard.Decision {
	return k.Guard.Navigate(ctx, k.Navigator, destination)
}

// Close waits for background session work and releases the store.
func (k *Kit) Close() error {
	var errs []error
	for i := len(k.closers) - 1; i >= 0; i-- {
		if err := k.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	k.closers = nil
	return errors.Join(errs...)
}

func (k *Kit) openStore(ctx context.Context) (session.Store, error) {
	cfg := k.Config
	switch cfg.Store {
	case "", StoreMemory:
		return kvstore.NewMemory(), nil

	case StoreFile:
		path := cfg.StorePath
		if path == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return nil, errors.Join(ErrStoreOpen, err)
			}
			path = filepath.Join(dir, cfg.ServiceName, "session.json")
		}
		s, err := kvstore.OpenFile(path)
		if errors.Is(err, kvstore.ErrCorruptFile) {
			k.Logger.WarnContext(ctx, "discarding unreadable session file",
				logger.Component("kvstore"), logger.Path(path), logger.Error(err))
			if rmErr := os.Remove(path); rmErr != nil {
				return nil, errors.Join(ErrStoreOpen, err, rmErr)
			}
			s, err = kvstore.OpenFile(path)
		}
		if err != nil {
			return nil, errors.Join(ErrStoreOpen, err)
		}
		return s, nil

	case StoreRedis:
		client, err := kvstore.DialRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, errors.Join(ErrStoreOpen, err)
		}
		k.closers = append(k.closers, client.Close)
		return kvstore.NewRedis(client, cfg.Redis.KeyPrefix), nil

	case StoreSQLite:
		path := cfg.StorePath
		if path == "" {
			path = cfg.ServiceName + ".db"
		}
		s, err := kvstore.OpenSQLite(ctx, path)
		if err != nil {
			return nil, errors.Join(ErrStoreOpen, err)
		}
		k.closers = append(k.closers, s.Close)
		return s, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}
}

func loadRoutes(cfg Config) (*guard.Routes, error) {
	if cfg.RoutesFile == "" {
		routes, err := guard.NewRoutes(cfg.NotFoundPath, DefaultRoutes()...)
		if err != nil {
			return nil, errors.Join(ErrRoutes, err)
		}
		return routes, nil
	}
	routes, err := guard.LoadRoutesFile(cfg.RoutesFile)
	if err != nil {
		return nil, errors.Join(ErrRoutes, err)
	}
	return routes, nil
}
