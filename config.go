package authkit

import (
	"time"

	"github.com/dmitrymomot/authkit/pkg/config"
	"github.com/dmitrymomot/authkit/pkg/kvstore"
	"github.com/dmitrymomot/authkit/pkg/session"
)

// Store back-ends selectable through Config.Store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config is the kit configuration. Every field has an environment variable.
type Config struct {
	APIBaseURL     string        `env:"AUTHKIT_API_BASE_URL" envDefault:"http://localhost:8080/api"`
	HTTPTimeout    time.Duration `env:"AUTHKIT_HTTP_TIMEOUT" envDefault:"10s"`
	RetryBaseDelay time.Duration `env:"AUTHKIT_RETRY_BASE_DELAY" envDefault:"1s"`
	RetryMaxDelay  time.Duration `env:"AUTHKIT_RETRY_MAX_DELAY" envDefault:"30s"`
	// DefaultRetry is the retry budget of calls that do not set one.
	DefaultRetry int `env:"AUTHKIT_DEFAULT_RETRY" envDefault:"0"`
	// Locale selects the error message table by language tag, e.g. "en" or "zh-CN".
	Locale string `env:"AUTHKIT_LOCALE" envDefault:"en"`

	Store     string `env:"AUTHKIT_STORE" envDefault:"memory"`
	StorePath string `env:"AUTHKIT_STORE_PATH"`

	HomePath     string `env:"AUTHKIT_HOME_PATH" envDefault:"/"`
	NotFoundPath string `env:"AUTHKIT_NOT_FOUND_PATH" envDefault:"/404"`
	// RoutesFile is an optional YAML route table replacing the defaults.
	RoutesFile string `env:"AUTHKIT_ROUTES_FILE"`

	Env         string `env:"AUTHKIT_ENV" envDefault:"development"`
	ServiceName string `env:"AUTHKIT_SERVICE_NAME" envDefault:"authkit"`

	Session session.Config
	Redis   kvstore.RedisConfig
}

// LoadConfig reads Config from the environment.
func LoadConfig(opts ...config.Option) (Config, error) {
	return config.Load[Config](opts...)
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:     "http://localhost:8080/api",
		HTTPTimeout:    10 * time.Second,
		RetryBaseDelay: time.Second,
		RetryMaxDelay:  30 * time.Second,
		Locale:         "en",
		Store:          StoreMemory,
		HomePath:       "/",
		NotFoundPath:   "/404",
		Env:            "development",
		ServiceName:    "authkit",
		Session:        session.DefaultConfig(),
		Redis: kvstore.RedisConfig{
			ConnectionURL:  "redis://localhost:6379/0",
			KeyPrefix:      "authkit:session:",
			RetryAttempts:  3,
			RetryInterval:  2 * time.Second,
			ConnectTimeout: 10 * time.Second,
		},
	}
}
