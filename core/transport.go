package core

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when the chat platform answers with
// a success status but a body that does not match the expected schema.
var ErrMalformedResponse = errors.New("malformed response")

// TransportError reports a chat platform call that failed or returned a
// non-2xx status.
type TransportError struct {
	Method      string
	StatusCode  int
	Description string
	Err         error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		if e.Description != "" {
			return fmt.Sprintf("telegram %s: status %d: %s", e.Method, e.StatusCode, e.Description)
		}
		return fmt.Sprintf("telegram %s: status %d", e.Method, e.StatusCode)
	}
	return fmt.Sprintf("telegram %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
