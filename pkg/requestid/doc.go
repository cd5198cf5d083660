// Package requestid generates and propagates the trace identifiers attached
// to outgoing API calls.
//
// Every logical call made by the request pipeline gets one identifier. It is
// generated once with New, stored in the call context with WithContext and
// sent to the server in the Header ("X-Request-ID"). Retries of the same call
// reuse the identifier so server logs can join every attempt.
//
// # Usage
//
//	id := requestid.New()
//	ctx = requestid.WithContext(ctx, id)
//	req.Header.Set(requestid.Header, requestid.FromContext(ctx))
//
// A caller supplied identifier is accepted only when Valid reports true;
// Ensure returns the identifier already in the context or a fresh one.
//
// # Logger integration
//
// LoggerExtractor plugs into the logger package so every record written with
// a call context carries the trace_id attribute:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
package requestid
