package session

import "context"

// Persisted keys. Values are plain strings; KeyUser holds the JSON encoded User.
const (
	KeyUser         = "user"
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
)

// Store is the durable key-value substrate the manager persists the session
// in. The manager is its only writer for the keys above.
type Store interface {
	// Get returns the value of key. A missing key is reported with ok=false
	// and a nil error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Navigator is the view router the manager redirects through after logout.
type Navigator interface {
	CurrentPath() string
	Replace(path string)
}
