package domain

import (
	"encoding/json"
)

// DispatchResult is what the management API returned for one descriptor:
// either its JSON body, verbatim, or a structured error.
type DispatchResult struct {
	Body       json.RawMessage
	StatusCode int
	Err        *Error
}

// DispatchOK wraps a JSON body returned by the management API.
func DispatchOK(status int, body json.RawMessage) DispatchResult {
	return DispatchResult{StatusCode: status, Body: body}
}

// DispatchFailed wraps a dispatch error.
func DispatchFailed(err *Error) DispatchResult {
	return DispatchResult{Err: err}
}

// Failed reports whether the result carries an error.
func (r DispatchResult) Failed() bool {
	return r.Err != nil
}

// MarshalJSON renders the body, or {"error": "..."} for failures.
func (r DispatchResult) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(map[string]string{"error": r.Err.Error()})
	}
	if len(r.Body) == 0 {
		return []byte("null"), nil
	}
	return r.Body, nil
}
