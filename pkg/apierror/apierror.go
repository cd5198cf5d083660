package apierror

import (
	"errors"
	"fmt"
)

// Reserved codes for failures that carry no HTTP status.
const (
	CodeNetwork         = -1
	CodeClientConfig    = -2
	CodeInvalidResponse = -3
)

// Kind is the category of a classified failure.
type Kind uint8

const (
	KindTransport Kind = iota + 1
	KindConfig
	KindHTTPStatus
	KindAuthExpired
	KindValidation
	KindBusiness
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindConfig:
		return "config"
	case KindHTTPStatus:
		return "http_status"
	case KindAuthExpired:
		return "auth_expired"
	case KindValidation:
		return "validation"
	case KindBusiness:
		return "business"
	default:
		return "unknown"
	}
}

// Error is a classified API failure.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Details any
	// Cause is the underlying failure, kept for logging. It is never the
	// value a caller should branch on.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("api error %d (%s): %s: %v", e.Code, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("api error %d (%s): %s", e.Code, e.Kind, e.Message)
}

// Unwrap exposes the kind sentinels and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 3)
	switch e.Kind {
	case KindTransport:
		errs = append(errs, ErrTransport)
	case KindConfig:
		errs = append(errs, ErrConfig)
	case KindHTTPStatus:
		errs = append(errs, ErrHTTPStatus)
	case KindAuthExpired:
		errs = append(errs, ErrAuthExpired, ErrHTTPStatus)
	case KindValidation:
		errs = append(errs, ErrValidation)
	case KindBusiness:
		errs = append(errs, ErrBusiness)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// As returns the classified error wrapped in err, if any.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// CodeOf returns the code of a classified error, or 0 when err is not one.
func CodeOf(err error) int {
	if apiErr, ok := As(err); ok {
		return apiErr.Code
	}
	return 0
}

// IsStatus reports whether err is a classified HTTP failure with the given status.
func IsStatus(err error, status int) bool {
	apiErr, ok := As(err)
	if !ok {
		return false
	}
	return (apiErr.Kind == KindHTTPStatus || apiErr.Kind == KindAuthExpired) && apiErr.Code == status
}

// IsRetryable reports whether err belongs to the transient set a retry policy
// may repeat: server-side 5xx statuses, plus network failures when
// retryNetwork is set.
func IsRetryable(err error, retryNetwork bool) bool {
	apiErr, ok := As(err)
	if !ok {
		return false
	}
	switch apiErr.Kind {
	case KindHTTPStatus:
		return apiErr.Code >= 500 && apiErr.Code <= 599
	case KindTransport:
		return retryNetwork
	default:
		return false
	}
}
