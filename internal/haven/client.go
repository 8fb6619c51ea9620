package haven

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"lantern/internal/apperr"
)

// ServerSource resolves the active Haven base URL. It is consulted on every
// request because the user can repoint the client at a different server
// without restarting.
type ServerSource interface {
	ServerURL() string
}

// Client talks to the Haven HTTP API. All failures surface as *apperr.Error;
// raw transport errors never escape this package.
type Client struct {
	server    ServerSource
	http      *http.Client
	userAgent string
	logger    *log.Logger

	// flight collapses concurrent duplicate writes; telemetry caps the rate
	// of progress/view reports during scrubbing bursts.
	flight    singleflight.Group
	telemetry *rate.Limiter

	mu             sync.Mutex
	onUnauthorized func()
}

const (
	defaultServerURL = "http://127.0.0.1:8400"
	defaultUserAgent = "lantern/0.1"
	requestTimeout   = 15 * time.Second

	maxRetries     = 2
	retryBaseDelay = 500 * time.Millisecond

	telemetryRate  = 2 // requests per second
	telemetryBurst = 4
)

// NewClient builds a Client around the given server source. The cookie jar
// carries Haven's session cookie so credentials attach automatically.
func NewClient(server ServerSource, logger *log.Logger) (*Client, error) {
	if server == nil {
		return nil, fmt.Errorf("server source is required")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("init cookie jar: %w", err)
	}
	return &Client{
		server: server,
		http: &http.Client{
			Timeout: requestTimeout,
			Jar:     jar,
		},
		userAgent: defaultUserAgent,
		logger:    logger.With("component", "haven"),
		telemetry: rate.NewLimiter(rate.Limit(telemetryRate), telemetryBurst),
	}, nil
}

// OnUnauthorized registers the observer invoked when a request fails in a
// way that invalidates the session: UNAUTHENTICATED on any method, or
// FORBIDDEN on a read. The slot accepts exactly one handler; later calls are
// ignored.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.onUnauthorized == nil {
		c.onUnauthorized = fn
	}
}

func (c *Client) notifyAuthFailure(method string, e *apperr.Error) {
	if e.Code != apperr.CodeUnauthenticated &&
		!(e.Code == apperr.CodeForbidden && isIdempotent(method)) {
		return
	}
	c.mu.Lock()
	fn := c.onUnauthorized
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// isIdempotent reports whether the transport may safely re-issue a request
// with this method. Writes are excluded: a lost response cannot be told
// apart from a lost request.
func isIdempotent(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// do executes one logical request, including retry for idempotent methods.
// The attempt count is carried by the loop itself so the ceiling is visible
// here and nowhere else.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	base, err := parseBaseURL(c.server.ServerURL())
	if err != nil {
		return apperr.Network(fmt.Sprintf("invalid server address: %v", err))
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return &apperr.Error{Code: apperr.CodeUnknown, Message: fmt.Sprintf("encode request: %v", err)}
		}
	}

	rel := &url.URL{Path: path}
	if query != nil {
		rel.RawQuery = query.Encode()
	}
	reqURL := base.ResolveReference(rel).String()

	for attempt := 0; ; attempt++ {
		appErr := c.attempt(ctx, method, reqURL, payload, dest)
		if appErr == nil {
			return nil
		}
		c.notifyAuthFailure(method, appErr)

		if !isIdempotent(method) || !apperr.ShouldRetry(appErr) || attempt >= maxRetries {
			return appErr
		}
		delay := retryBaseDelay * time.Duration(attempt+1)
		c.logger.Debug("retrying request", "method", method, "path", path, "attempt", attempt+1, "delay", delay)
		select {
		case <-ctx.Done():
			return appErr
		case <-time.After(delay):
		}
	}
}

// attempt performs a single round trip and classifies the outcome.
func (c *Client) attempt(ctx context.Context, method, reqURL string, payload []byte, dest any) *apperr.Error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return apperr.Network(fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Network(networkMessage(err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Network(fmt.Sprintf("read response: %v", err))
	}

	retryAfter := resp.Header.Get("Retry-After")
	if resp.StatusCode >= 400 {
		return apperr.Classify(resp.StatusCode, raw, "", retryAfter)
	}
	// Haven reports some failures inside HTTP 200 bodies; the embedded
	// statusCode is authoritative there.
	if embeddedFailure(raw) {
		return apperr.Classify(resp.StatusCode, raw, "", retryAfter)
	}
	if dest == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(UnwrapEnvelope(raw), dest); err != nil {
		return &apperr.Error{Code: apperr.CodeUnknown, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// doWrite routes a mutation through the in-flight ledger. Concurrent callers
// with the same method+path share a single execution and outcome; each
// caller decodes the shared payload into its own destination.
func (c *Client) doWrite(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	key := RequestKey(method, path)
	shared, err, _ := c.flight.Do(key, func() (any, error) {
		var raw json.RawMessage
		if err := c.do(ctx, method, path, query, body, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae
		}
		return &apperr.Error{Code: apperr.CodeUnknown, Message: err.Error()}
	}
	if dest == nil {
		return nil
	}
	raw, _ := shared.(json.RawMessage)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &apperr.Error{Code: apperr.CodeUnknown, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func networkMessage(err error) string {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Sprintf("request timed out after %s", requestTimeout)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("request timed out after %s", requestTimeout)
	}
	return fmt.Sprintf("network error: %v", err)
}

func parseBaseURL(serverURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(serverURL)
	if trimmed == "" {
		trimmed = defaultServerURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", serverURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
