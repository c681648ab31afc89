// Package types defines the JSON envelopes shared by every API response.
// Success bodies always sit under "data", failures under "error", so
// clients can branch on one key.
package types

// SuccessEnvelope wraps a successful response body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failure. Code is one of the stable
// error codes from pkg/errors; Details carries field-level validation
// problems when present.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError for transport.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
