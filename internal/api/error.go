package api

import (
	"fmt"
	"net/http"
)

// Error is the uniform failure shape for any backend request. Status is zero
// when the failure happened before a response arrived (network-level error).
// Payload carries the parsed response body, when there was one, for callers
// that need more than the message.
type Error struct {
	Status  int
	Message string
	Payload map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// Unauthorized reports whether the request was rejected with 401. The login
// probe uses this to distinguish bad credentials from other failures.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// classify builds an Error for a non-2xx response. Message preference:
// body "error" field, body "detail" field, status text, then "HTTP <code>".
func classify(status int, payload map[string]any) *Error {
	msg := stringField(payload, "error")
	if msg == "" {
		msg = stringField(payload, "detail")
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &Error{Status: status, Message: msg, Payload: payload}
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// transportError wraps a failure that happened before any response arrived.
func transportError(err error) *Error {
	return &Error{Message: fmt.Sprintf("request failed: %v", err)}
}
