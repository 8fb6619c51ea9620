package passkey

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

type fakeAuthenticator struct {
	available bool
	result    *PlatformAssertion
	err       error
	gotReq    Request
}

func (f *fakeAuthenticator) Available() bool { return f.available }

func (f *fakeAuthenticator) GetAssertion(ctx context.Context, req Request) (*PlatformAssertion, error) {
	f.gotReq = req
	return f.result, f.err
}

func validResult() *PlatformAssertion {
	return &PlatformAssertion{
		CredentialID:      []byte{1, 2, 3},
		AuthenticatorData: []byte{4, 5},
		ClientDataJSON:    []byte(`{"type":"webauthn.get"}`),
		Signature:         []byte{6, 7, 8, 9},
		ClientExtensionResults: map[string]any{
			"appid": true,
		},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	lengths := []int{0, 1, 2, 3, 16}
	for _, n := range lengths {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i * 31)
		}
		encoded := Encode(data)
		if bytes.ContainsAny([]byte(encoded), "=") {
			t.Fatalf("Encode(len %d) = %q, want no padding", n, encoded)
		}
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(len %d) returned error: %v", n, err)
		}
		if !bytes.Equal(decoded, data) {
			t.Fatalf("round trip len %d = %v, want %v", n, decoded, data)
		}
	}
}

func TestDecode_ToleratesPadding(t *testing.T) {
	decoded, err := Decode("AQID")
	if err != nil || !bytes.Equal(decoded, []byte{1, 2, 3}) {
		t.Fatalf("Decode(unpadded) = %v, %v", decoded, err)
	}
	decoded, err = Decode("AQI=")
	if err != nil || !bytes.Equal(decoded, []byte{1, 2}) {
		t.Fatalf("Decode(padded) = %v, %v", decoded, err)
	}
}

func TestAssert_EncodesAllBinaryFields(t *testing.T) {
	auth := &fakeAuthenticator{available: true, result: validResult()}
	auth.result.UserHandle = []byte{9, 9}
	codec := NewCodec(auth)

	opts := BeginOptions{
		Challenge: Encode([]byte("challenge-bytes")),
		RPID:      "haven.local",
		AllowCredentials: []AllowedCredential{
			{Type: "public-key", ID: Encode([]byte{1, 2, 3})},
		},
	}

	assertion, err := codec.Assert(context.Background(), opts)
	if err != nil {
		t.Fatalf("Assert returned error: %v", err)
	}

	if !bytes.Equal(auth.gotReq.Challenge, []byte("challenge-bytes")) {
		t.Fatalf("platform challenge = %v, want decoded bytes", auth.gotReq.Challenge)
	}
	if len(auth.gotReq.AllowedCredentialIDs) != 1 ||
		!bytes.Equal(auth.gotReq.AllowedCredentialIDs[0], []byte{1, 2, 3}) {
		t.Fatalf("platform credential ids = %v", auth.gotReq.AllowedCredentialIDs)
	}

	if assertion.Type != "public-key" {
		t.Fatalf("Type = %q, want public-key", assertion.Type)
	}
	if assertion.RawID != Encode([]byte{1, 2, 3}) {
		t.Fatalf("RawID = %q", assertion.RawID)
	}
	if assertion.Response.Signature != Encode([]byte{6, 7, 8, 9}) {
		t.Fatalf("Signature = %q", assertion.Response.Signature)
	}
	if assertion.Response.UserHandle != Encode([]byte{9, 9}) {
		t.Fatalf("UserHandle = %q", assertion.Response.UserHandle)
	}
	if v, ok := assertion.ClientExtensionResults["appid"]; !ok || v != true {
		t.Fatalf("ClientExtensionResults = %v, want appid passthrough", assertion.ClientExtensionResults)
	}
}

func TestAssert_OmitsAbsentUserHandle(t *testing.T) {
	auth := &fakeAuthenticator{available: true, result: validResult()}
	codec := NewCodec(auth)

	assertion, err := codec.Assert(context.Background(), BeginOptions{Challenge: Encode([]byte("c"))})
	if err != nil {
		t.Fatalf("Assert returned error: %v", err)
	}
	if assertion.Response.UserHandle != "" {
		t.Fatalf("UserHandle = %q, want empty", assertion.Response.UserHandle)
	}
}

func TestAssert_NotSupported(t *testing.T) {
	for _, codec := range []*Codec{NewCodec(nil), NewCodec(&fakeAuthenticator{available: false})} {
		_, err := codec.Assert(context.Background(), BeginOptions{Challenge: "AQID"})
		if !errors.Is(err, ErrNotSupported) {
			t.Fatalf("error = %v, want ErrNotSupported", err)
		}
	}
}

func TestAssert_InvalidOptions(t *testing.T) {
	auth := &fakeAuthenticator{available: true, result: validResult()}
	codec := NewCodec(auth)

	tests := []struct {
		name string
		opts BeginOptions
	}{
		{"empty challenge", BeginOptions{}},
		{"malformed challenge", BeginOptions{Challenge: "!!!not-base64url!!!"}},
		{
			"malformed credential id",
			BeginOptions{
				Challenge:        Encode([]byte("c")),
				AllowCredentials: []AllowedCredential{{ID: "%%%"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.Assert(context.Background(), tt.opts); !errors.Is(err, ErrInvalidOptions) {
				t.Fatalf("error = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func TestAssert_MissingBinaryFieldIsInvalid(t *testing.T) {
	result := validResult()
	result.Signature = nil
	auth := &fakeAuthenticator{available: true, result: result}
	codec := NewCodec(auth)

	_, err := codec.Assert(context.Background(), BeginOptions{Challenge: Encode([]byte("c"))})
	if !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("error = %v, want ErrInvalidOptions", err)
	}
}

func TestAssert_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		platform error
		want     error
	}{
		{"platform cancellation", ErrCancelled, ErrCancelled},
		{"context cancellation", context.Canceled, ErrCancelled},
		{"context deadline", context.DeadlineExceeded, ErrCancelled},
		{"anything else", errors.New("secure enclave exploded"), ErrRuntime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuthenticator{available: true, err: tt.platform}
			codec := NewCodec(auth)
			_, err := codec.Assert(context.Background(), BeginOptions{Challenge: Encode([]byte("c"))})
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseBeginOptions(t *testing.T) {
	opts, err := ParseBeginOptions([]byte(`{"challenge":"AQID","rpId":"haven.local","timeout":60000}`))
	if err != nil {
		t.Fatalf("ParseBeginOptions returned error: %v", err)
	}
	if opts.Challenge != "AQID" || opts.RPID != "haven.local" || opts.TimeoutMS != 60000 {
		t.Fatalf("opts = %+v", opts)
	}

	if _, err := ParseBeginOptions([]byte(`{broken`)); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("error = %v, want ErrInvalidOptions", err)
	}
}
