// Package haven provides the resilient HTTP client for the Haven
// video-library API.
//
// # Overview
//
// Haven is a quirky backend: it mixes bare payloads with
// {success:true,data} envelopes, reports some failures inside HTTP 200
// bodies, and throttles logins with a waitTime field instead of a header.
// This package turns that surface into a predictable one. Callers get typed
// payloads on success and *apperr.Error values on failure, nothing else.
//
// # Files
//
//   - client.go:   transport core, retry loop, reauth observer
//   - library.go:  video library and queue operations
//   - auth.go:     auth config, session probe, credential verification
//   - envelope.go: mixed-envelope normalization
//   - inflight.go: dedup key construction for concurrent writes
//   - types.go:    payload structs mirroring the API schema
//
// # Request handling
//
// Every request:
//   - resolves the base URL from its ServerSource at call time, so a server
//     address change applies to the very next request
//   - carries Accept/User-Agent headers and a uuid X-Request-ID
//   - is bounded by a 15 second timeout; timeouts classify as NETWORK with
//     a message distinct from connection failures
//   - attaches the Haven session cookie from the client's jar
//
// # Retry policy
//
// Only idempotent methods (GET, HEAD, OPTIONS) retry, at most twice, with a
// linear backoff of baseDelay*attempt. Mutations never retry at this layer:
// a lost response cannot be distinguished from a lost request, so the
// duplicate-suppression job belongs to the in-flight ledger instead.
//
// # Write deduplication
//
// All mutations route through a singleflight group keyed by
// "METHOD /normalized/path". Overlapping duplicate writes execute once and
// every caller observes the same outcome. Query parameters that merely
// modify the same logical write (DeleteVideo's purge flag) stay out of the
// key on purpose.
//
// # Session invalidation
//
// One observer, registered once via OnUnauthorized, fires when a response
// classifies as UNAUTHENTICATED (any method) or FORBIDDEN on a read. A
// FORBIDDEN write is an expected "role cannot do this" outcome and does not
// end the session.
package haven
