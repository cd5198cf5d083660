package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option tunes a single Load call.
type Option func(*options)

type options struct {
	files   []string
	prefix  string
	environ map[string]string
}

// WithEnvFiles loads the given dotenv files before parsing. Variables already
// present in the process environment win. A missing file is an error.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) { o.files = append(o.files, paths...) }
}

// WithPrefix prepends prefix to every env tag of the target struct.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvironment parses from the given map instead of the process
// environment. Results loaded this way are never cached.
func WithEnvironment(environ map[string]string) Option {
	return func(o *options) { o.environ = environ }
}

type cache struct {
	mu     sync.Mutex
	values map[string]any
}

var (
	globalCache      = &cache{values: make(map[string]any)}
	defaultEnvLoaded sync.Once
)

// Load parses environment variables into a value of type T using its env
// struct tags. The first successful result per type and prefix is cached and
// returned by later calls.
//
//	type HTTPConfig struct {
//	    BaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/api"`
//	    Timeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
//	}
//
//	cfg, err := config.Load[HTTPConfig](config.WithPrefix("AUTHKIT_"))
func Load[T any](opts ...Option) (T, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.environ != nil {
		return parse[T](o)
	}

	key := typeName[T]() + "|" + o.prefix

	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()

	if cached, ok := globalCache.values[key]; ok {
		return cached.(T), nil
	}

	v, err := parse[T](o)
	if err != nil {
		return v, err
	}
	globalCache.values[key] = v
	return v, nil
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](opts ...Option) T {
	v, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load required configuration: %v", err))
	}
	return v
}

// ResetCache drops every cached configuration.
func ResetCache() {
	globalCache.mu.Lock()
	globalCache.values = make(map[string]any)
	globalCache.mu.Unlock()
}

func parse[T any](o *options) (T, error) {
	var zero T

	if len(o.files) > 0 {
		if err := godotenv.Load(o.files...); err != nil {
			return zero, errors.Join(ErrEnvFile, err)
		}
	} else if o.environ == nil {
		defaultEnvLoaded.Do(func() {
			// A missing .env in the working directory is normal.
			_ = godotenv.Load()
		})
	}

	v, err := env.ParseAsWithOptions[T](env.Options{
		Prefix:      o.prefix,
		Environment: o.environ,
	})
	if err != nil {
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}

func typeName[T any]() string {
	t := reflect.TypeFor[T]()
	return t.PkgPath() + "." + t.String()
}
