package passkey

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Codec failure taxonomy. Passkey failures come from a different domain
// than transport failures (platform capability, user cancellation) and are
// deliberately kept out of the apperr taxonomy.
var (
	ErrNotSupported   = errors.New("passkey not supported on this platform")
	ErrCancelled      = errors.New("passkey request cancelled")
	ErrInvalidOptions = errors.New("passkey options invalid")
	ErrRuntime        = errors.New("passkey runtime failure")
)

// Authenticator is the platform assertion capability. Real implementations
// bind to the OS credential API; tests use fakes.
type Authenticator interface {
	Available() bool
	GetAssertion(ctx context.Context, req Request) (*PlatformAssertion, error)
}

// BeginOptions is the challenge payload Haven returns from the passkey
// begin endpoint. Binary fields arrive base64url encoded.
type BeginOptions struct {
	Challenge        string              `json:"challenge"`
	RPID             string              `json:"rpId"`
	TimeoutMS        int                 `json:"timeout"`
	UserVerification string              `json:"userVerification"`
	AllowCredentials []AllowedCredential `json:"allowCredentials"`
}

// AllowedCredential names one previously registered credential.
type AllowedCredential struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ParseBeginOptions decodes the raw begin payload.
func ParseBeginOptions(raw json.RawMessage) (BeginOptions, error) {
	var opts BeginOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return BeginOptions{}, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return opts, nil
}

// Request is the binary form the platform capability expects.
type Request struct {
	Challenge            []byte
	RPID                 string
	TimeoutMS            int
	UserVerification     string
	AllowedCredentialIDs [][]byte
}

// PlatformAssertion is the platform's binary assertion result.
type PlatformAssertion struct {
	CredentialID           []byte
	AuthenticatorData      []byte
	ClientDataJSON         []byte
	Signature              []byte
	UserHandle             []byte
	ClientExtensionResults map[string]any
}

// Assertion is the transport-safe encoding submitted to Haven.
type Assertion struct {
	ID                     string            `json:"id"`
	RawID                  string            `json:"rawId"`
	Type                   string            `json:"type"`
	Response               AssertionResponse `json:"response"`
	ClientExtensionResults map[string]any    `json:"clientExtensionResults,omitempty"`
}

// AssertionResponse carries the re-encoded binary fields.
type AssertionResponse struct {
	AuthenticatorData string `json:"authenticatorData"`
	ClientDataJSON    string `json:"clientDataJSON"`
	Signature         string `json:"signature"`
	UserHandle        string `json:"userHandle,omitempty"`
}

// Codec normalizes challenge options for the platform capability and
// serializes its binary result back into transport-safe text.
type Codec struct {
	auth Authenticator
}

// NewCodec builds a Codec over the given platform capability (nil means the
// capability is absent).
func NewCodec(auth Authenticator) *Codec {
	return &Codec{auth: auth}
}

// Supported reports whether a platform assertion capability is present.
func (c *Codec) Supported() bool {
	return c.auth != nil && c.auth.Available()
}

// Assert runs one assertion ceremony: decode the options, invoke the
// platform, re-encode the result.
func (c *Codec) Assert(ctx context.Context, opts BeginOptions) (*Assertion, error) {
	if !c.Supported() {
		return nil, ErrNotSupported
	}

	challenge, err := Decode(opts.Challenge)
	if err != nil || len(challenge) == 0 {
		return nil, fmt.Errorf("%w: bad challenge", ErrInvalidOptions)
	}

	req := Request{
		Challenge:        challenge,
		RPID:             opts.RPID,
		TimeoutMS:        opts.TimeoutMS,
		UserVerification: opts.UserVerification,
	}
	for _, cred := range opts.AllowCredentials {
		id, err := Decode(cred.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: bad credential id %q", ErrInvalidOptions, cred.ID)
		}
		req.AllowedCredentialIDs = append(req.AllowedCredentialIDs, id)
	}

	result, err := c.auth.GetAssertion(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrCancelled):
			return nil, err
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrRuntime, err)
		}
	}

	if len(result.CredentialID) == 0 || len(result.AuthenticatorData) == 0 ||
		len(result.ClientDataJSON) == 0 || len(result.Signature) == 0 {
		return nil, fmt.Errorf("%w: assertion missing required binary field", ErrInvalidOptions)
	}

	assertion := &Assertion{
		ID:    Encode(result.CredentialID),
		RawID: Encode(result.CredentialID),
		Type:  "public-key",
		Response: AssertionResponse{
			AuthenticatorData: Encode(result.AuthenticatorData),
			ClientDataJSON:    Encode(result.ClientDataJSON),
			Signature:         Encode(result.Signature),
		},
		ClientExtensionResults: result.ClientExtensionResults,
	}
	if len(result.UserHandle) > 0 {
		assertion.Response.UserHandle = Encode(result.UserHandle)
	}
	return assertion, nil
}

// Encode base64url-encodes without padding.
func Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode base64url-decodes, tolerating both padded and unpadded input.
func Decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
