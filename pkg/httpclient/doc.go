// Package httpclient is the request pipeline every API call goes through.
//
// A Client attaches credentials and a trace identifier to each call, decodes
// the response envelope, classifies failures into *apierror.Error values and
// retries transient failures with exponential backoff.
//
// # Pipeline
//
// Each attempt runs an ordered list of PreSendFunc transforms over a copy of
// the Request:
//
//  1. the trace identifier is written to the X-Request-ID header. It is
//     generated once per Do call and reused by retries;
//  2. GET requests get a "_t" cache-busting query parameter;
//  3. the bearer token is taken from the Request or the bound TokenSource;
//  4. transforms registered with WithPreSend run in registration order.
//
// A transform error fails the call with a client-config error before
// anything is sent.
//
// A 2xx response must carry the envelope
//
//	{"code": 200, "message": "...", "data": ..., "success": true}
//
// A business code other than 0 or 200, or success=false, is returned as a
// KindBusiness error so callers never inspect the flag themselves. A body
// that is not an envelope yields a KindValidation error. Otherwise data is
// decoded into the out argument.
//
// # Retries
//
// Only 5xx responses are retried, plus transport failures when the call
// opts in with WithRetryNetworkErrors. The budget comes from WithRetry or the
// client default. Delays come from the BackoffStrategy (DefaultBackoff: 1s
// doubling). When the budget is spent the last classified error is
// returned.
//
// # Unauthorized responses
//
// A client built with Authenticated hands a 401 to its Authenticator once.
// If the authenticator reports the session was recovered the call is sent
// again with the current token; a second 401 is returned to the caller. The
// client never loops on 401 and never touches session state itself.
//
// # Usage
//
//	base, err := httpclient.New("https://api.example.com/api",
//	    httpclient.WithLogger(log),
//	    httpclient.WithDefaultTimeout(10*time.Second),
//	)
//	api := base.Authenticated(sessionManager)
//
//	var profile Profile
//	err = api.Get(ctx, "/user/info", &profile, httpclient.WithRetry(3))
package httpclient
