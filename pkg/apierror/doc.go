// Package apierror classifies the outcome of a failed API call into a closed
// taxonomy of typed errors.
//
// Every failure that leaves the request pipeline is an *Error produced by this
// package exactly once, after classification. Raw transport errors never
// cross that boundary; they are kept as the Cause of the classified error for
// logging only.
//
// # Classification rules
//
// Classify applies the following rules in order:
//
//  1. A response with a non-2xx status was received. The status is mapped to a
//     fixed message (401, 403, 404, 429, 500, 502-504), any other status keeps
//     the server supplied message or falls back to a generic one. Code is the
//     HTTP status.
//  2. The call was dispatched but no response arrived (timeout, connection
//     reset). Code is CodeNetwork.
//  3. The call was never dispatched (bad configuration, body serialization).
//     Code is CodeClientConfig.
//
// A 2xx response that still reaches the classifier could not be used and is
// reported as a validation failure with CodeInvalidResponse.
//
// # Kinds
//
// Kind exposes the taxonomy: KindTransport, KindConfig, KindHTTPStatus,
// KindAuthExpired (a 401 specialisation of KindHTTPStatus), KindValidation and
// KindBusiness (the transport succeeded but the envelope reported failure).
// Each kind has a sentinel so callers can branch with errors.Is:
//
//	if errors.Is(err, apierror.ErrAuthExpired) {
//	    // redirect to login
//	}
//
// # Messages
//
// DefaultMessages holds English display strings. ChineseMessages mirrors the
// wording of the web frontend. A Classifier with a custom table is
// created with NewClassifier(WithMessages(...)).
package apierror
