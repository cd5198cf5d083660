package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/authkit/pkg/apierror"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/requestid"
)

const (
	// CacheBustParam is the query parameter added to every GET.
	CacheBustParam = "_t"

	maxResponseBody = 10 << 20
)

// TokenSource supplies the access token attached to outgoing calls. An empty
// token sends the call unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Authenticator is a TokenSource that can also recover from a 401.
// HandleUnauthorized is given the token the rejected call carried and
// reports whether a retry with the current token is worthwhile. It owns the
// refresh and the purge of local credentials.
type Authenticator interface {
	TokenSource
	HandleUnauthorized(ctx context.Context, failedToken string) bool
}

// PreSendFunc transforms a request copy before it is sent. Transforms run in
// a fixed order on every attempt.
type PreSendFunc func(ctx context.Context, req Request) (Request, error)

// Client is the single choke point for API calls.
type Client struct {
	defaults *defaults

	http       *http.Client
	log        *slog.Logger
	classifier *apierror.Classifier
	backoff    BackoffStrategy
	retry      int
	preSend    []PreSendFunc
	breaker    *CircuitBreaker
	onAttempt  AttemptHook
	auth       Authenticator
}

// defaults are shared by a client and the copies made from it.
type defaults struct {
	mu      sync.RWMutex
	baseURL *url.URL
	header  http.Header
	timeout time.Duration
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		defaults: &defaults{
			baseURL: u,
			header:  http.Header{},
			timeout: 10 * time.Second,
		},
		http:       &http.Client{},
		log:        logger.Discard(),
		classifier: apierror.NewClassifier(),
		backoff:    DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("httpclient"))
	return c, nil
}

// Authenticated returns a copy of c that attaches tokens from a and hands
// 401 responses to it. The copy shares base URL, default headers and timeout
// with c.
func (c *Client) Authenticated(a Authenticator) *Client {
	cp := *c
	cp.auth = a
	cp.preSend = append([]PreSendFunc(nil), c.preSend...)
	return &cp
}

// SetBaseURL changes the API root for c and every client sharing its defaults.
func (c *Client) SetBaseURL(raw string) error {
	u, err := parseBaseURL(raw)
	if err != nil {
		return err
	}
	c.defaults.mu.Lock()
	c.defaults.baseURL = u
	c.defaults.mu.Unlock()
	return nil
}

func (c *Client) BaseURL() string {
	c.defaults.mu.RLock()
	defer c.defaults.mu.RUnlock()
	return c.defaults.baseURL.String()
}

// SetTimeout changes the default per-attempt timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.defaults.mu.Lock()
	c.defaults.timeout = d
	c.defaults.mu.Unlock()
}

func (c *Client) SetHeader(key, value string) {
	c.defaults.mu.Lock()
	c.defaults.header.Set(key, value)
	c.defaults.mu.Unlock()
}

func (c *Client) RemoveHeader(key string) {
	c.defaults.mu.Lock()
	c.defaults.header.Del(key)
	c.defaults.mu.Unlock()
}

// Do sends req and decodes the envelope payload into out. Every failure is
// an *apierror.Error.
//
// Retryable failures (5xx, and transport errors when the call opts in) are
// retried up to the request's budget with the client's backoff. A 401 is
// handed to the bound Authenticator once; when it reports success the call
// is re-sent once with the current token.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	if req == nil {
		return c.classifier.Config(ErrNilRequest)
	}

	traceID := req.TraceID
	if !requestid.Valid(traceID) {
		traceID = requestid.New()
	}
	ctx = requestid.WithContext(ctx, traceID)

	budget := c.retry
	if req.retrySet {
		budget = req.Retry
	}
	retryNetwork := req.RetryNetwork && req.sink == nil

	var (
		retries  int
		reauthed bool
	)
	for number := 1; ; number++ {
		sentToken, apiErr := c.attempt(ctx, req, traceID, number, out)
		if apiErr == nil {
			return nil
		}

		if apiErr.Kind == apierror.KindAuthExpired && !reauthed && c.handles401(req) {
			reauthed = true
			if c.auth.HandleUnauthorized(ctx, sentToken) {
				c.log.DebugContext(ctx, "re-sending after session recovery",
					logger.Method(req.Method), logger.Path(req.Path))
				continue
			}
		}

		if retries >= budget || !apierror.IsRetryable(apiErr, retryNetwork) {
			c.log.WarnContext(ctx, "api call failed",
				logger.Method(req.Method),
				logger.Path(req.Path),
				logger.Attempt(number),
				logger.StatusCode(statusOf(apiErr)),
				logger.Error(apiErr),
			)
			return apiErr
		}

		retries++
		delay := c.backoff.NextInterval(retries)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return c.classifier.Network(ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) handles401(req *Request) bool {
	return c.auth != nil && !req.SkipAuth && req.Bearer == ""
}

// attempt performs one exchange and returns the bearer token it carried.
func (c *Client) attempt(ctx context.Context, req *Request, traceID string, number int, out any) (string, *apierror.Error) {
	start := time.Now()
	info := Attempt{TraceID: traceID, Method: req.Method, Path: req.Path, Number: number}

	token, status, apiErr := c.exchange(ctx, req, traceID, out)

	info.StatusCode = status
	info.Duration = time.Since(start)
	if apiErr != nil {
		info.Err = apiErr
	}
	c.record(status, apiErr)
	if c.onAttempt != nil {
		c.onAttempt(info)
	}
	c.log.DebugContext(ctx, "api attempt",
		logger.Method(req.Method),
		logger.Path(req.Path),
		logger.Attempt(number),
		logger.StatusCode(status),
		logger.Duration(info.Duration),
		logger.Error(info.Err),
	)
	return token, apiErr
}

func (c *Client) exchange(ctx context.Context, req *Request, traceID string, out any) (string, int, *apierror.Error) {
	if c.breaker != nil && !c.breaker.Allow() {
		return "", 0, c.classifier.Network(ErrCircuitOpen)
	}

	prepared, err := c.prepare(ctx, req, traceID)
	if err != nil {
		return "", 0, c.classifier.Config(err)
	}
	token := strings.TrimPrefix(prepared.Header.Get("Authorization"), "Bearer ")

	httpReq, cancel, err := c.build(ctx, prepared)
	if err != nil {
		return token, 0, c.classifier.Config(err)
	}
	defer cancel()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return token, 0, c.classifier.Classify(apierror.Outcome{Dispatched: true, Err: err})
	}
	defer func() { _ = resp.Body.Close() }()

	success := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if success && req.sink != nil {
		if _, err := io.Copy(req.sink, resp.Body); err != nil {
			return token, resp.StatusCode, c.classifier.Network(err)
		}
		return token, resp.StatusCode, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return token, resp.StatusCode, c.classifier.Network(err)
	}
	if !success {
		return token, resp.StatusCode, c.classifier.Classify(apierror.Outcome{
			Dispatched: true,
			StatusCode: resp.StatusCode,
			Body:       body,
		})
	}
	return token, resp.StatusCode, c.decodeBody(body, out)
}

// prepare runs the built-in transforms (trace header, cache buster, bearer)
// followed by the registered ones.
func (c *Client) prepare(ctx context.Context, req *Request, traceID string) (Request, error) {
	r := req.clone()
	r.TraceID = traceID

	transforms := make([]PreSendFunc, 0, 3+len(c.preSend))
	transforms = append(transforms, traceHeader, cacheBuster, c.bearer)
	transforms = append(transforms, c.preSend...)

	var err error
	for _, fn := range transforms {
		if r, err = fn(ctx, r); err != nil {
			return Request{}, err
		}
	}
	return r, nil
}

func traceHeader(_ context.Context, r Request) (Request, error) {
	r.Header.Set(requestid.Header, r.TraceID)
	return r, nil
}

func cacheBuster(_ context.Context, r Request) (Request, error) {
	if r.Method == http.MethodGet {
		r.Query.Set(CacheBustParam, strconv.FormatInt(time.Now().UnixMilli(), 10))
	}
	return r, nil
}

func (c *Client) bearer(ctx context.Context, r Request) (Request, error) {
	token := r.Bearer
	if token == "" && !r.SkipAuth && c.auth != nil {
		token = c.auth.Token(ctx)
	}
	if token != "" && !r.SkipAuth {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r, nil
}

func (c *Client) build(ctx context.Context, r Request) (*http.Request, context.CancelFunc, error) {
	c.defaults.mu.RLock()
	base := *c.defaults.baseURL
	header := c.defaults.header.Clone()
	timeout := c.defaults.timeout
	c.defaults.mu.RUnlock()

	target, err := resolve(&base, r.Path, r.Query)
	if err != nil {
		return nil, nil, err
	}

	payload, contentType := r.payload, r.contentType
	if payload == nil && r.Body != nil {
		if payload, err = encodeJSON(r.Body); err != nil {
			return nil, nil, err
		}
		contentType = "application/json"
	}

	if r.Timeout > 0 {
		timeout = r.Timeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, method, target, body)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	for k, vs := range header {
		httpReq.Header[k] = vs
	}
	for k, vs := range r.Header {
		httpReq.Header[k] = vs
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, cancel, nil
}

// resolve joins path onto base. A path with an inline query string has it
// merged into query; an absolute URL is used as is.
func resolve(base *url.URL, path string, query url.Values) (string, error) {
	var u *url.URL
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		parsed, err := url.Parse(path)
		if err != nil {
			return "", fmt.Errorf("invalid request URL %q: %w", path, err)
		}
		u = parsed
	} else {
		p, rawQuery, _ := strings.Cut(path, "?")
		u = base.JoinPath(p)
		if rawQuery != "" {
			inline, err := url.ParseQuery(rawQuery)
			if err != nil {
				return "", fmt.Errorf("invalid query in %q: %w", path, err)
			}
			u.RawQuery = inline.Encode()
		}
	}

	if len(query) > 0 {
		merged := u.Query()
		for k, vs := range query {
			merged[k] = vs
		}
		u.RawQuery = merged.Encode()
	}
	return u.String(), nil
}

func (c *Client) record(status int, apiErr *apierror.Error) {
	if c.breaker == nil {
		return
	}
	if apiErr != nil && errors.Is(apiErr, ErrCircuitOpen) {
		return
	}
	if apiErr != nil && (apiErr.Kind == apierror.KindTransport || status >= 500) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func statusOf(e *apierror.Error) int {
	if e.Kind == apierror.KindHTTPStatus || e.Kind == apierror.KindAuthExpired {
		return e.Code
	}
	return 0
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}
	return u, nil
}
