package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Code identifies the failure class of an Error. The set is closed: every
// failure that crosses a package boundary maps into exactly one Code.
type Code string

const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeValidation      Code = "VALIDATION"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeRateLimit       Code = "RATE_LIMIT"
	CodeServer          Code = "SERVER"
	CodeNetwork         Code = "NETWORK"
	CodeUnknown         Code = "UNKNOWN"
)

// Error is the one error type the transport layer hands to callers.
type Error struct {
	Code Code

	// HTTPStatus is the effective status, which may come from the response
	// body rather than the wire when Haven signals failure inside an HTTP
	// 200. Zero means no status applies (network failures).
	HTTPStatus int

	Message string

	// BackendType carries Haven's error subtype string, unmodified.
	BackendType string

	// Recoverable is Haven's own hint, passed through when present.
	Recoverable *bool

	// WaitTime mirrors the body's waitTime field (milliseconds verbatim).
	// RetryAfter is derived from a Retry-After style header. The two are
	// independent because they originate from different server conventions.
	WaitTime   *time.Duration
	RetryAfter *time.Duration
}

func (e *Error) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsAuth reports whether err classifies as an authentication-class failure.
func IsAuth(err error) bool {
	if ae, ok := As(err); ok {
		return ae.Code == CodeUnauthenticated || ae.Code == CodeForbidden
	}
	return false
}

// wireError mirrors the fields Haven error bodies may carry. Pointers
// distinguish absent fields from zero values.
type wireError struct {
	Success     *bool  `json:"success"`
	Error       string `json:"error"`
	Message     string `json:"message"`
	StatusCode  *int   `json:"statusCode"`
	Type        string `json:"type"`
	Recoverable *bool  `json:"recoverable"`
	WaitTime    *int64 `json:"waitTime"`
}

// Network builds a NETWORK-class error from a transport failure message.
func Network(message string) *Error {
	return &Error{Code: CodeNetwork, Message: message}
}

// Classify maps a raw response onto the closed taxonomy. body may be nil for
// transport-level failures, in which case netMsg describes what went wrong.
// retryAfter is the raw Retry-After header value ("" when absent).
func Classify(wireStatus int, body []byte, netMsg string, retryAfter string) *Error {
	if len(body) == 0 && netMsg != "" {
		return Network(netMsg)
	}

	var parsed wireError
	if len(body) > 0 {
		// Non-object bodies leave parsed zeroed; the wire status decides.
		_ = json.Unmarshal(body, &parsed)
	}

	status := wireStatus
	if parsed.Success != nil && !*parsed.Success && parsed.StatusCode != nil {
		status = *parsed.StatusCode
	}

	message := parsed.Error
	if message == "" {
		message = parsed.Message
	}
	if message == "" {
		message = fmt.Sprintf("request failed (%d)", status)
	}

	e := &Error{
		Code:        codeForStatus(status),
		HTTPStatus:  status,
		Message:     message,
		BackendType: parsed.Type,
		Recoverable: parsed.Recoverable,
	}
	if parsed.WaitTime != nil {
		wt := time.Duration(*parsed.WaitTime) * time.Millisecond
		e.WaitTime = &wt
	}
	if d, ok := ParseRetryAfter(retryAfter, time.Now()); ok {
		e.RetryAfter = &d
	}
	return e
}

func codeForStatus(status int) Code {
	switch {
	case status == http.StatusUnauthorized:
		return CodeUnauthenticated
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeConflict
	case status == http.StatusTooManyRequests:
		return CodeRateLimit
	case status == http.StatusBadRequest:
		return CodeValidation
	case status >= 500:
		return CodeServer
	default:
		return CodeUnknown
	}
}

// nonRetryable statuses never retry, whatever the code suggests. This is a
// safety fence: 4xx failures on these statuses are either permanent or would
// duplicate a side effect.
var nonRetryable = map[int]bool{
	http.StatusBadRequest:      true,
	http.StatusUnauthorized:    true,
	http.StatusForbidden:       true,
	http.StatusNotFound:        true,
	http.StatusConflict:        true,
	http.StatusTooManyRequests: true,
}

// ShouldRetry reports whether the transport may re-issue the request that
// produced e. Only network failures and 5xx server failures qualify.
func ShouldRetry(e *Error) bool {
	if e == nil {
		return false
	}
	if nonRetryable[e.HTTPStatus] {
		return false
	}
	switch e.Code {
	case CodeNetwork:
		return true
	case CodeServer:
		return e.HTTPStatus >= 500
	default:
		return false
	}
}

// ParseRetryAfter interprets a Retry-After style value: a number of seconds
// (or numeric string), or an HTTP-date. Absolute dates in the past clamp to
// zero. The second return is false when the value is absent or unparseable.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), true
	}
	if at, err := http.ParseTime(trimmed); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
