package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/authkit/pkg/apierror"
)

// Attempt describes one HTTP exchange made by Do.
type Attempt struct {
	TraceID    string
	Method     string
	Path       string
	Number     int
	StatusCode int
	Duration   time.Duration
	Err        error
}

// AttemptHook is called after every attempt, including re-sends.
type AttemptHook func(Attempt)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithDefaultTimeout bounds every attempt that sets no timeout of its own.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaults.timeout = d
		}
	}
}

// WithDefaultHeader adds a header sent with every request.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) {
		c.defaults.header.Set(key, value)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithClassifier(cl *apierror.Classifier) Option {
	return func(c *Client) {
		if cl != nil {
			c.classifier = cl
		}
	}
}

func WithBackoff(b BackoffStrategy) Option {
	return func(c *Client) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithDefaultRetry sets the retry budget of calls that declare none.
func WithDefaultRetry(n int) Option {
	return func(c *Client) {
		c.retry = max(n, 0)
	}
}

// WithPreSend appends transforms that run after the built-in ones, in the
// order given.
func WithPreSend(fns ...PreSendFunc) Option {
	return func(c *Client) {
		for _, fn := range fns {
			if fn != nil {
				c.preSend = append(c.preSend, fn)
			}
		}
	}
}

// WithCircuitBreaker guards every call with cb.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

func WithOnAttempt(hook AttemptHook) Option {
	return func(c *Client) { c.onAttempt = hook }
}

// WithAuthenticator binds the token source and 401 handler.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) { c.auth = a }
}
