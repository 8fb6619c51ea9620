package haven

import (
	"encoding/json"
	"testing"
)

func TestUnwrapEnvelope(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"wrapped payload", `{"success":true,"data":{"id":7},"message":"ok"}`, `{"id":7}`},
		{"wrapped scalar", `{"success":true,"data":42}`, `42`},
		{"bare object unchanged", `{"id":7,"title":"x"}`, `{"id":7,"title":"x"}`},
		{"bare object with extra fields", `{"id":7,"success":"yes"}`, `{"id":7,"success":"yes"}`},
		{"failure object unchanged", `{"success":false,"error":"nope"}`, `{"success":false,"error":"nope"}`},
		{"success without data unchanged", `{"success":true,"message":"ok"}`, `{"success":true,"message":"ok"}`},
		{"array unchanged", `[1,2,3]`, `[1,2,3]`},
		{"scalar unchanged", `"hello"`, `"hello"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnwrapEnvelope(json.RawMessage(tt.raw))
			if string(got) != tt.want {
				t.Fatalf("UnwrapEnvelope(%s) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestUnwrapEnvelope_Idempotent(t *testing.T) {
	raw := json.RawMessage(`{"success":true,"data":{"id":7}}`)
	once := UnwrapEnvelope(raw)
	twice := UnwrapEnvelope(once)
	if string(once) != string(twice) {
		t.Fatalf("second unwrap changed payload: %s vs %s", once, twice)
	}
}

func TestEmbeddedFailure(t *testing.T) {
	if !embeddedFailure(json.RawMessage(`{"success":false,"statusCode":401}`)) {
		t.Fatalf("embeddedFailure(success:false) = false, want true")
	}
	if embeddedFailure(json.RawMessage(`{"success":true,"data":1}`)) {
		t.Fatalf("embeddedFailure(success:true) = true, want false")
	}
	if embeddedFailure(json.RawMessage(`{"id":7}`)) {
		t.Fatalf("embeddedFailure(bare) = true, want false")
	}
	if embeddedFailure(json.RawMessage(`[false]`)) {
		t.Fatalf("embeddedFailure(array) = true, want false")
	}
}
