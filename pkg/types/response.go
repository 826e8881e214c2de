// Package types holds the JSON envelopes shared by every tijara endpoint.
// Success bodies nest the payload under "data"; error bodies carry a code the
// storefront can branch on plus a message safe to show the shopper.
package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Details carries field-level validation messages or conflict context,
	// only for codes that allow exposing them.
	Details any `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Success wraps a handler payload in the standard envelope.
func Success(data any) SuccessEnvelope {
	return SuccessEnvelope{Data: data}
}

// Failure builds the standard error envelope.
func Failure(code, message string) ErrorEnvelope {
	return ErrorEnvelope{Error: APIError{Code: code, Message: message}}
}
