package apierror

import "errors"

// Kind sentinels. A classified *Error matches exactly one of them through
// errors.Is, except KindAuthExpired which also matches ErrHTTPStatus.
var (
	ErrTransport   = errors.New("apierror.transport")
	ErrConfig      = errors.New("apierror.config")
	ErrHTTPStatus  = errors.New("apierror.http_status")
	ErrAuthExpired = errors.New("apierror.auth_expired")
	ErrValidation  = errors.New("apierror.validation")
	ErrBusiness    = errors.New("apierror.business")
)

// ErrInvalidEnvelope is the cause attached to validation failures when the
// response body is not a well-formed envelope.
var ErrInvalidEnvelope = errors.New("apierror.invalid_envelope")
