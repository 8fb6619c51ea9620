package haven

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"lantern/internal/apperr"
)

// AuthAPI is the authentication surface the session controller consumes.
// Implemented by *Client; tests substitute fakes.
type AuthAPI interface {
	FetchAuthConfig(ctx context.Context) (*AuthConfig, error)
	FetchSession(ctx context.Context) (*SessionInfo, error)
	VerifyAdminPassword(ctx context.Context, password string) (*VerifyOK, error)
	VerifyVisitorPassword(ctx context.Context, password string) (*VerifyOK, error)
	BeginPasskey(ctx context.Context) (json.RawMessage, error)
	VerifyPasskey(ctx context.Context, assertion any) (*VerifyOK, error)
	Logout(ctx context.Context) error
}

var _ AuthAPI = (*Client)(nil)

// FetchAuthConfig asks whether this deployment requires login at all.
func (c *Client) FetchAuthConfig(ctx context.Context) (*AuthConfig, error) {
	var cfg AuthConfig
	if err := c.do(ctx, http.MethodGet, "/api/auth/config", nil, nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FetchSession probes the current session and its role. An auth-class error
// here means the session is not valid server-side.
func (c *Client) FetchSession(ctx context.Context) (*SessionInfo, error) {
	var info SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// VerifyAdminPassword attempts an admin login. Haven answers failures with
// HTTP 200 plus {success:false, statusCode, waitTime?}; those become apperr
// values (429 → RATE_LIMIT) before this returns.
func (c *Client) VerifyAdminPassword(ctx context.Context, password string) (*VerifyOK, error) {
	return c.verifyPassword(ctx, "/api/auth/admin/verify", password)
}

// VerifyVisitorPassword attempts a visitor login.
func (c *Client) VerifyVisitorPassword(ctx context.Context, password string) (*VerifyOK, error) {
	return c.verifyPassword(ctx, "/api/auth/visitor/verify", password)
}

func (c *Client) verifyPassword(ctx context.Context, path, password string) (*VerifyOK, error) {
	body := struct {
		Password string `json:"password"`
	}{Password: password}
	var ok VerifyOK
	if err := c.doWrite(ctx, http.MethodPost, path, nil, body, &ok); err != nil {
		return nil, err
	}
	return &ok, nil
}

// BeginPasskey starts a passkey ceremony and returns the challenge options
// as raw JSON for the passkey codec to normalize.
func (c *Client) BeginPasskey(ctx context.Context) (json.RawMessage, error) {
	var options json.RawMessage
	if err := c.doWrite(ctx, http.MethodPost, "/api/auth/passkey/begin", nil, nil, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// VerifyPasskey submits an encoded assertion produced by the passkey codec.
func (c *Client) VerifyPasskey(ctx context.Context, assertion any) (*VerifyOK, error) {
	var ok VerifyOK
	if err := c.doWrite(ctx, http.MethodPost, "/api/auth/passkey/verify", nil, assertion, &ok); err != nil {
		return nil, err
	}
	return &ok, nil
}

// Logout ends the server-side session. Callers treat failures as advisory;
// local state is cleared regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.doWrite(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
}

func apperrFromContext(err error) *apperr.Error {
	return apperr.Network(fmt.Sprintf("request aborted: %v", err))
}
