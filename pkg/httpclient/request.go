package httpclient

import (
	"io"
	"net/http"
	"net/url"
	"time"
)

// Request is one logical outbound call. Retries and the post-401 re-send
// reuse the same Request and trace identifier.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	// Body is encoded as JSON. Nil sends no body.
	Body any

	// TraceID overrides the generated identifier when it is a valid header
	// value.
	TraceID string
	// Retry is the retry budget for retryable failures. Unset means the
	// client default.
	Retry int
	// Timeout bounds each attempt. Zero means the client default.
	Timeout time.Duration
	// RetryNetwork lets the retry budget cover transport failures.
	RetryNetwork bool
	// SkipAuth sends the call without a bearer token.
	SkipAuth bool
	// Bearer sends this token instead of the bound token source. A 401 on
	// such a call is surfaced without involving the authenticator.
	Bearer string

	retrySet    bool
	payload     []byte
	contentType string
	sink        io.Writer
}

// RequestOption configures a Request.
type RequestOption func(*Request)

// NewRequest builds a request for method and path.
func NewRequest(method, path string, opts ...RequestOption) *Request {
	r := &Request{Method: method, Path: path}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithBody sets the JSON body.
func WithBody(v any) RequestOption {
	return func(r *Request) { r.Body = v }
}

// WithQuery merges values into the query string.
func WithQuery(values url.Values) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = url.Values{}
		}
		for k, vs := range values {
			for _, v := range vs {
				r.Query.Add(k, v)
			}
		}
	}
}

// WithParam sets a single query parameter.
func WithParam(key, value string) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = url.Values{}
		}
		r.Query.Set(key, value)
	}
}

func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = http.Header{}
		}
		r.Header.Set(key, value)
	}
}

// WithRetry sets the retry budget. Negative values are treated as zero.
func WithRetry(n int) RequestOption {
	return func(r *Request) {
		r.Retry = max(n, 0)
		r.retrySet = true
	}
}

func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) { r.Timeout = d }
}

// WithRetryNetworkErrors opts the call into retrying transport failures.
func WithRetryNetworkErrors() RequestOption {
	return func(r *Request) { r.RetryNetwork = true }
}

func WithBearer(token string) RequestOption {
	return func(r *Request) { r.Bearer = token }
}

func WithoutAuth() RequestOption {
	return func(r *Request) { r.SkipAuth = true }
}

func WithTraceID(id string) RequestOption {
	return func(r *Request) { r.TraceID = id }
}

// clone returns a copy whose header and query can be changed without
// touching r.
func (r *Request) clone() Request {
	c := *r
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = http.Header{}
	}
	c.Query = cloneValues(r.Query)
	return c
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
