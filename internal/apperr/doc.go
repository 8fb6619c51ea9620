// Package apperr defines the closed error taxonomy for the Haven API and the
// classification policy that maps raw responses into it.
//
// # Overview
//
// Haven is not consistent about how it reports failure. Some endpoints use
// plain HTTP status codes. Others return HTTP 200 with a body of the form
// {"success": false, "statusCode": 401, ...}. Rate limiting arrives as a
// body field (waitTime, milliseconds) on some endpoints and as a
// Retry-After header on others. This package absorbs all of that into one
// Error type with exactly one Code per failure.
//
// # Effective status
//
// When a body carries success=false together with a numeric statusCode, that
// embedded code is the effective status and the wire status is ignored.
// Callers must never branch on the wire status alone for those endpoints;
// Classify is the single place where the two are reconciled.
//
// # Classification
//
//	401 → UNAUTHENTICATED    409 → CONFLICT
//	403 → FORBIDDEN          429 → RATE_LIMIT
//	404 → NOT_FOUND          5xx → SERVER
//	400 → VALIDATION         else → UNKNOWN
//
// Transport failures with no response body classify as NETWORK, carrying the
// human message from the transport (timeouts get a distinct message from
// connection failures).
//
// # Retry policy
//
// ShouldRetry is deliberately narrow: NETWORK, or SERVER with an effective
// status of 500 or above. The statuses 400, 401, 403, 404, 409 and 429 are
// a hard non-retryable set that wins over any code-based decision. The
// transport additionally restricts retries to idempotent methods; see the
// haven package.
//
// # Advisory durations
//
// WaitTime (from the body, milliseconds verbatim) and RetryAfter (from a
// header: seconds, numeric string, or HTTP-date) are kept as separate
// optional fields because they come from different server conventions and
// drive different client behavior (login countdowns vs poll backoff).
package apperr
