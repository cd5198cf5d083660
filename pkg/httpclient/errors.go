package httpclient

import "errors"

var (
	// ErrCircuitOpen is the cause of the transport error returned while the
	// client's circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("httpclient: circuit breaker is open")
	// ErrInvalidBaseURL is returned for a base URL without scheme or host.
	ErrInvalidBaseURL = errors.New("httpclient: invalid base URL")
	// ErrNilRequest is the cause of the config error returned by Do(nil).
	ErrNilRequest = errors.New("httpclient: nil request")
)

// IsCircuitOpen reports whether err was caused by an open circuit breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
