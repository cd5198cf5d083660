package httpclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/apierror"
	"github.com/dmitrymomot/authkit/pkg/httpclient"
	"github.com/dmitrymomot/authkit/pkg/requestid"
)

func writeEnvelope(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"message": message,
		"data":    data,
		"success": code == 0 || code == 200,
	})
}

func newClient(t *testing.T, srv *httptest.Server, opts ...httpclient.Option) *httpclient.Client {
	t.Helper()
	c, err := httpclient.New(srv.URL+"/api", opts...)
	require.NoError(t, err)
	return c
}

type staticAuth struct {
	mu      sync.Mutex
	token   string
	next    string
	recover bool
	calls   int
	failed  []string
}

func (a *staticAuth) Token(context.Context) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *staticAuth) HandleUnauthorized(_ context.Context, failed string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.failed = append(a.failed, failed)
	if a.recover {
		a.token = a.next
	}
	return a.recover
}

func TestNew_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "/api", "localhost:8080", "://bad"} {
		_, err := httpclient.New(raw)
		assert.ErrorIs(t, err, httpclient.ErrInvalidBaseURL, raw)
	}
}

func TestClient_DecodesEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/info", r.URL.Path)
		writeEnvelope(w, 200, "ok", map[string]any{"id": 7, "email": "a@b.c"})
	}))
	defer srv.Close()

	var out struct {
		ID    int    `json:"id"`
		Email string `json:"email"`
	}
	err := newClient(t, srv).Get(context.Background(), "/user/info", &out)
	require.NoError(t, err)
	assert.Equal(t, 7, out.ID)
	assert.Equal(t, "a@b.c", out.Email)
}

func TestClient_WholeEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, "done", []int{1, 2})
	}))
	defer srv.Close()

	var resp httpclient.Response
	require.NoError(t, newClient(t, srv).Post(context.Background(), "/items", map[string]int{"n": 1}, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "done", resp.Message)
	assert.JSONEq(t, `[1,2]`, string(resp.Data))
}

func TestClient_EnvelopeFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		kind    apierror.Kind
		code    int
		message string
		details any
	}{
		{
			name:    "business code",
			body:    `{"code":1001,"message":"email already registered","data":{"field":"email"},"success":false}`,
			kind:    apierror.KindBusiness,
			code:    1001,
			message: "email already registered",
			details: map[string]any{"field": "email"},
		},
		{
			name:    "success flag false",
			body:    `{"code":200,"message":"quota exceeded","success":false}`,
			kind:    apierror.KindBusiness,
			code:    200,
			message: "quota exceeded",
		},
		{
			name:    "business failure without message",
			body:    `{"code":500}`,
			kind:    apierror.KindBusiness,
			code:    500,
			message: apierror.DefaultMessages.RequestFailed,
		},
		{
			name:    "missing code",
			body:    `{"data":{}}`,
			kind:    apierror.KindValidation,
			code:    apierror.CodeInvalidResponse,
			message: apierror.DefaultMessages.InvalidResponse,
		},
		{
			name:    "not an object",
			body:    `[1,2,3]`,
			kind:    apierror.KindValidation,
			code:    apierror.CodeInvalidResponse,
			message: apierror.DefaultMessages.InvalidResponse,
		},
		{
			name:    "not json",
			body:    `<html>`,
			kind:    apierror.KindValidation,
			code:    apierror.CodeInvalidResponse,
			message: apierror.DefaultMessages.InvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			err := newClient(t, srv).Get(context.Background(), "/x", nil)
			apiErr, ok := apierror.As(err)
			require.True(t, ok, "error must be classified: %v", err)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.details, apiErr.Details)
		})
	}
}

func TestClient_DataDecodeFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, "ok", "not-a-number")
	}))
	defer srv.Close()

	var n int
	err := newClient(t, srv).Get(context.Background(), "/x", &n)
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.ErrorIs(t, err, apierror.ErrInvalidEnvelope)
}

func TestClient_PreSend(t *testing.T) {
	t.Parallel()

	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		writeEnvelope(w, 200, "ok", nil)
	}))
	defer srv.Close()

	auth := &staticAuth{token: "access-1"}
	var order []string
	c := newClient(t, srv,
		httpclient.WithDefaultHeader("X-Client", "authkit"),
		httpclient.WithPreSend(
			func(_ context.Context, r httpclient.Request) (httpclient.Request, error) {
				order = append(order, "first:"+r.Header.Get("Authorization"))
				r.Header.Set("X-Locale", "zh-CN")
				return r, nil
			},
			func(_ context.Context, r httpclient.Request) (httpclient.Request, error) {
				order = append(order, "second:"+r.Header.Get("X-Locale"))
				return r, nil
			},
		),
	).Authenticated(auth)

	t.Run("get", func(t *testing.T) {
		require.NoError(t, c.Get(context.Background(), "/posts", nil, httpclient.WithParam("page", "2")))

		assert.Equal(t, "Bearer access-1", got.Header.Get("Authorization"))
		assert.Equal(t, "authkit", got.Header.Get("X-Client"))
		assert.Equal(t, "zh-CN", got.Header.Get("X-Locale"))
		assert.Equal(t, "application/json", got.Header.Get("Accept"))
		assert.Equal(t, "2", got.URL.Query().Get("page"))
		assert.NotEmpty(t, got.URL.Query().Get(httpclient.CacheBustParam))
		_, err := uuid.Parse(got.Header.Get(requestid.Header))
		assert.NoError(t, err)
		assert.Equal(t, []string{"first:Bearer access-1", "second:zh-CN"}, order)
	})

	t.Run("post has no cache buster", func(t *testing.T) {
		require.NoError(t, c.Post(context.Background(), "/posts", map[string]string{"title": "hi"}, nil))
		assert.Empty(t, got.URL.Query().Get(httpclient.CacheBustParam))
		assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	})

	t.Run("without auth", func(t *testing.T) {
		require.NoError(t, c.Get(context.Background(), "/public", nil, httpclient.WithoutAuth()))
		assert.Empty(t, got.Header.Get("Authorization"))
	})

	t.Run("explicit bearer", func(t *testing.T) {
		require.NoError(t, c.Get(context.Background(), "/user/info", nil, httpclient.WithBearer("other")))
		assert.Equal(t, "Bearer other", got.Header.Get("Authorization"))
	})

	t.Run("explicit trace id", func(t *testing.T) {
		require.NoError(t, c.Get(context.Background(), "/x", nil, httpclient.WithTraceID("trace-abc")))
		assert.Equal(t, "trace-abc", got.Header.Get(requestid.Header))
	})

	t.Run("inline query", func(t *testing.T) {
		require.NoError(t, c.Get(context.Background(), "/auth/check-email?email=a%40b.c", nil))
		assert.Equal(t, "/api/auth/check-email", got.URL.Path)
		assert.Equal(t, "a@b.c", got.URL.Query().Get("email"))
	})
}

func TestClient_PreSendErrorIsConfigError(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeEnvelope(w, 200, "ok", nil)
	}))
	defer srv.Close()

	c := newClient(t, srv, httpclient.WithPreSend(func(context.Context, httpclient.Request) (httpclient.Request, error) {
		return httpclient.Request{}, errors.New("signing key missing")
	}))

	err := c.Get(context.Background(), "/x", nil)
	assert.ErrorIs(t, err, apierror.ErrConfig)
	assert.Equal(t, apierror.CodeClientConfig, apierror.CodeOf(err))
	assert.Zero(t, hits.Load())
}

func TestClient_UnencodableBodyIsConfigError(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	err := newClient(t, srv).Post(context.Background(), "/x", map[string]any{"ch": make(chan int)}, nil)
	apiErr, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindConfig, apiErr.Kind)
	assert.Equal(t, apierror.CodeClientConfig, apiErr.Code)
	assert.Contains(t, apiErr.Details, "unsupported type")
	assert.Zero(t, hits.Load())
}

func TestClient_RetryBackoff(t *testing.T) {
	t.Parallel()

	const base = 50 * time.Millisecond
	var (
		mu     sync.Mutex
		stamps []time.Time
		traces []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		traces = append(traces, r.Header.Get(requestid.Header))
		n := len(stamps)
		mu.Unlock()
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeEnvelope(w, 200, "ok", "done")
	}))
	defer srv.Close()

	var attempts []httpclient.Attempt
	c := newClient(t, srv,
		httpclient.WithBackoff(httpclient.ExponentialBackoff{InitialInterval: base, Multiplier: 2}),
		httpclient.WithOnAttempt(func(a httpclient.Attempt) { attempts = append(attempts, a) }),
	)

	var out string
	err := c.Get(context.Background(), "/flaky", &out, httpclient.WithRetry(3))
	require.NoError(t, err)
	assert.Equal(t, "done", out)

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), base)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 2*base)

	assert.Equal(t, traces[0], traces[1])
	assert.Equal(t, traces[1], traces[2])

	require.Len(t, attempts, 3)
	assert.Equal(t, 503, attempts[0].StatusCode)
	assert.Equal(t, 3, attempts[2].Number)
	assert.NoError(t, attempts[2].Err)
}

func TestClient_RetryExhausted(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(t, srv, httpclient.WithBackoff(httpclient.FixedBackoff{Interval: time.Millisecond}))
	err := c.Get(context.Background(), "/x", nil, httpclient.WithRetry(2))

	assert.Equal(t, int32(3), hits.Load())
	assert.True(t, apierror.IsStatus(err, http.StatusBadGateway))
	apiErr, _ := apierror.As(err)
	assert.Equal(t, apierror.DefaultMessages.ServiceUnavailable, apiErr.Message)
}

func TestClient_DefaultRetryBudget(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(t, srv,
		httpclient.WithDefaultRetry(1),
		httpclient.WithBackoff(httpclient.FixedBackoff{Interval: time.Millisecond}),
	)
	_ = c.Get(context.Background(), "/x", nil)
	assert.Equal(t, int32(2), hits.Load())

	hits.Store(0)
	_ = c.Get(context.Background(), "/x", nil, httpclient.WithRetry(0))
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	for _, status := range []int{400, 403, 404, 409, 429} {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(status)
		}))

		c := newClient(t, srv, httpclient.WithBackoff(httpclient.FixedBackoff{Interval: time.Millisecond}))
		err := c.Get(context.Background(), "/x", nil, httpclient.WithRetry(3))
		assert.True(t, apierror.IsStatus(err, status))
		assert.Equal(t, int32(1), hits.Load(), "status %d", status)
		srv.Close()
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_NetworkErrors(t *testing.T) {
	t.Parallel()

	flaky := func(failures int32, hits *atomic.Int32) *http.Client {
		return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if hits.Add(1) <= failures {
				return nil, errors.New("connection reset by peer")
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": {"application/json"}},
				Body:       io.NopCloser(strings.NewReader(`{"code":200,"data":"ok"}`)),
				Request:    r,
			}, nil
		})}
	}

	t.Run("not retried by default", func(t *testing.T) {
		t.Parallel()
		var hits atomic.Int32
		c, err := httpclient.New("http://api.test",
			httpclient.WithHTTPClient(flaky(1, &hits)),
			httpclient.WithBackoff(httpclient.FixedBackoff{Interval: time.Millisecond}),
		)
		require.NoError(t, err)

		err = c.Get(context.Background(), "/x", nil, httpclient.WithRetry(3))
		assert.ErrorIs(t, err, apierror.ErrTransport)
		assert.Equal(t, apierror.CodeNetwork, apierror.CodeOf(err))
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("retried on opt in", func(t *testing.T) {
		t.Parallel()
		var hits atomic.Int32
		c, err := httpclient.New("http://api.test",
			httpclient.WithHTTPClient(flaky(2, &hits)),
			httpclient.WithBackoff(httpclient.FixedBackoff{Interval: time.Millisecond}),
		)
		require.NoError(t, err)

		var out string
		err = c.Get(context.Background(), "/x", &out, httpclient.WithRetry(3), httpclient.WithRetryNetworkErrors())
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, int32(3), hits.Load())
	})
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := newClient(t, srv).Get(context.Background(), "/slow", nil, httpclient.WithTimeout(30*time.Millisecond))
	assert.ErrorIs(t, err, apierror.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_CancelDuringBackoff(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := newClient(t, srv, httpclient.WithBackoff(httpclient.FixedBackoff{Interval: time.Hour}))
	start := time.Now()
	err := c.Get(ctx, "/x", nil, httpclient.WithRetry(5))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.ErrorIs(t, err, apierror.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Unauthorized(t *testing.T) {
	t.Parallel()

	t.Run("re-sends once after recovery", func(t *testing.T) {
		t.Parallel()
		var seen []string
		var mu sync.Mutex
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			seen = append(seen, r.Header.Get("Authorization"))
			mu.Unlock()
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeEnvelope(w, 200, "ok", nil)
		}))
		defer srv.Close()

		auth := &staticAuth{token: "stale", next: "fresh", recover: true}
		err := newClient(t, srv).Authenticated(auth).Get(context.Background(), "/me", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Bearer stale", "Bearer fresh"}, seen)
		assert.Equal(t, 1, auth.calls)
		assert.Equal(t, []string{"stale"}, auth.failed)
	})

	t.Run("never loops", func(t *testing.T) {
		t.Parallel()
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		auth := &staticAuth{token: "a", next: "b", recover: true}
		err := newClient(t, srv).Authenticated(auth).Get(context.Background(), "/me", nil, httpclient.WithRetry(3))
		assert.ErrorIs(t, err, apierror.ErrAuthExpired)
		assert.Equal(t, int32(2), hits.Load())
		assert.Equal(t, 1, auth.calls)
	})

	t.Run("surfaces when not recovered", func(t *testing.T) {
		t.Parallel()
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		auth := &staticAuth{token: "a"}
		err := newClient(t, srv).Authenticated(auth).Get(context.Background(), "/me", nil)
		apiErr, ok := apierror.As(err)
		require.True(t, ok)
		assert.Equal(t, apierror.KindAuthExpired, apiErr.Kind)
		assert.Equal(t, apierror.DefaultMessages.Unauthorized, apiErr.Message)
		assert.Equal(t, int32(1), hits.Load())
		assert.Equal(t, 1, auth.calls)
	})

	t.Run("explicit bearer bypasses authenticator", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		auth := &staticAuth{token: "a", recover: true}
		err := newClient(t, srv).Authenticated(auth).Get(context.Background(), "/me", nil, httpclient.WithBearer("x"))
		assert.ErrorIs(t, err, apierror.ErrAuthExpired)
		assert.Zero(t, auth.calls)
	})
}

func TestClient_CircuitBreaker(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cb := httpclient.NewCircuitBreaker(2, 1, time.Hour)
	c := newClient(t, srv, httpclient.WithCircuitBreaker(cb))

	_ = c.Get(context.Background(), "/x", nil)
	_ = c.Get(context.Background(), "/x", nil)
	assert.Equal(t, httpclient.CircuitOpen, cb.State())

	err := c.Get(context.Background(), "/x", nil)
	assert.True(t, httpclient.IsCircuitOpen(err))
	assert.ErrorIs(t, err, apierror.ErrTransport)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_SharedDefaults(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeEnvelope(w, 200, "ok", nil)
	}))
	defer srv.Close()

	base, err := httpclient.New("http://unused.test")
	require.NoError(t, err)
	authed := base.Authenticated(&staticAuth{})

	require.NoError(t, base.SetBaseURL(srv.URL+"/api"))
	base.SetHeader("X-Tenant", "acme")
	base.SetTimeout(time.Second)
	assert.Equal(t, srv.URL+"/api", authed.BaseURL())

	require.NoError(t, authed.Get(context.Background(), "/x", nil))
	assert.Equal(t, "acme", got.Get("X-Tenant"))

	authed.RemoveHeader("X-Tenant")
	require.NoError(t, base.Get(context.Background(), "/x", nil))
	assert.Empty(t, got.Get("X-Tenant"))

	assert.ErrorIs(t, base.SetBaseURL("nope"), httpclient.ErrInvalidBaseURL)
}

func TestClient_Upload(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "avatar", r.FormValue("kind"))
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		content, _ := io.ReadAll(f)
		writeEnvelope(w, 200, "ok", map[string]any{"name": hdr.Filename, "size": len(content)})
	}))
	defer srv.Close()

	c := newClient(t, srv, httpclient.WithBackoff(httpclient.FixedBackoff{Interval: time.Millisecond}))
	var out struct {
		Name string `json:"name"`
		Size int    `json:"size"`
	}
	err := c.Upload(context.Background(), "/upload",
		httpclient.File{Name: "me.png", Content: strings.NewReader("png-bytes")},
		map[string]string{"kind": "avatar"},
		&out,
		httpclient.WithRetry(1),
	)
	require.NoError(t, err)
	assert.Equal(t, "me.png", out.Name)
	assert.Equal(t, len("png-bytes"), out.Size)
}

func TestClient_Download(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, "raw,csv,data")
	}))
	defer srv.Close()

	c := newClient(t, srv)

	var buf strings.Builder
	require.NoError(t, c.Download(context.Background(), "/export", &buf))
	assert.Equal(t, "raw,csv,data", buf.String())

	buf.Reset()
	err := c.Download(context.Background(), "/missing", &buf)
	assert.True(t, apierror.IsStatus(err, http.StatusNotFound))
	assert.Empty(t, buf.String())
}
