package haven

import "encoding/json"

// UnwrapEnvelope normalizes Haven's two response shapes. Some endpoints
// return the payload bare; others wrap it as {success:true, data:...}.
// The payload is extracted only when the value is a JSON object carrying
// success=true AND a data key. Everything else, including
// {success:false,...} objects and bare payloads that happen to have extra
// fields, passes through byte-identical.
func UnwrapEnvelope(raw json.RawMessage) json.RawMessage {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return raw
	}
	successRaw, ok := probe["success"]
	if !ok {
		return raw
	}
	var success bool
	if err := json.Unmarshal(successRaw, &success); err != nil || !success {
		return raw
	}
	data, ok := probe["data"]
	if !ok {
		return raw
	}
	return data
}

// embeddedFailure reports whether raw is an object declaring success=false.
// Haven returns these inside HTTP 200 responses on several endpoints, so the
// wire status alone cannot be trusted.
func embeddedFailure(raw json.RawMessage) bool {
	var probe struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Success != nil && !*probe.Success
}
