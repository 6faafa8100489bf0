package api

import (
	"errors"
	"fmt"
)

// FallbackMessage is shown when a failed request carries no server message.
const FallbackMessage = "Something went wrong. Please try again."

// Error is a rejected API call. StatusCode is 0 when no response arrived.
// Message holds the server's message and stays empty when it sent none.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no message"
	}
	switch {
	case e.StatusCode > 0 && e.Err != nil:
		return fmt.Sprintf("api: %d: %s: %v", e.StatusCode, msg, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("api: %d: %s", e.StatusCode, msg)
	case e.Err != nil:
		return fmt.Sprintf("api: %v", e.Err)
	}
	return "api: " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the user-facing text for err: the server's message when
// there was one, FallbackMessage otherwise. Nil yields "".
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackMessage
}

// StatusCode returns the HTTP status of a rejected call, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
