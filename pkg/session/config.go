package session

import "time"

// Config holds session manager configuration.
type Config struct {
	// LoginPath is where the user is sent after the session ends.
	LoginPath string `env:"AUTHKIT_LOGIN_PATH" envDefault:"/login"`
	// ReturnParam names the query parameter carrying the interrupted path.
	ReturnParam string `env:"AUTHKIT_RETURN_PARAM" envDefault:"redirect"`
	// RefreshSkew refreshes a JWT access token this long before it expires.
	// Zero disables proactive refresh.
	RefreshSkew time.Duration `env:"AUTHKIT_REFRESH_SKEW" envDefault:"30s"`
	// LogoutNotifyTimeout bounds the best-effort server logout call.
	LogoutNotifyTimeout time.Duration `env:"AUTHKIT_LOGOUT_NOTIFY_TIMEOUT" envDefault:"5s"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		LoginPath:           "/login",
		ReturnParam:         "redirect",
		RefreshSkew:         30 * time.Second,
		LogoutNotifyTimeout: 5 * time.Second,
	}
}
