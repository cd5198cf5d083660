package session

import "errors"

var (
	// ErrNoEndpoints indicates the manager was built without an Endpoints implementation.
	ErrNoEndpoints = errors.New("session.no_endpoints")

	// ErrNotAuthenticated indicates the operation needs an access token.
	ErrNotAuthenticated = errors.New("session.not_authenticated")

	// ErrNoRefreshToken indicates no refresh token is held.
	ErrNoRefreshToken = errors.New("session.no_refresh_token")

	// ErrRefreshFailed wraps the failure of the refresh endpoint. The session
	// has been ended when it is returned.
	ErrRefreshFailed = errors.New("session.refresh_failed")

	// ErrHydrationFailed wraps the failure to load the profile for a
	// persisted token. The session has been cleared when it is returned.
	ErrHydrationFailed = errors.New("session.hydration_failed")

	// ErrSessionChanged indicates a result arrived for a session that has
	// since been replaced or ended and was discarded.
	ErrSessionChanged = errors.New("session.changed")

	// ErrCorruptState indicates the persisted user could not be decoded.
	// The persisted session has been purged when it is returned.
	ErrCorruptState = errors.New("session.corrupt_state")

	// ErrInvalidResponse indicates an endpoint returned success without the
	// fields a session needs.
	ErrInvalidResponse = errors.New("session.invalid_response")

	// ErrPersist wraps a failed write to the Store.
	ErrPersist = errors.New("session.persist_failed")

	// ErrPanic wraps a panic recovered from endpoint code.
	ErrPanic = errors.New("session.panic")
)
