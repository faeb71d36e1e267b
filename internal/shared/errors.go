package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Stream errors
	ErrTransport      = fmt.Errorf("stream connection lost")
	ErrMalformedFrame = fmt.Errorf("malformed stream frame")

	// Task and action errors
	ErrTaskRunning    = fmt.Errorf("a task is already running")
	ErrActionsBlocked = fmt.Errorf("actions are disabled")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServerRejected     = fmt.Errorf("server rejected request")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrValidation      = fmt.Errorf("validation failed")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// TransportError reports that the push channel closed or could not be opened.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", ErrTransport, e.URL)
	}
	return fmt.Sprintf("%v: %s: %v", ErrTransport, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ParseError reports a frame or progress message that could not be decoded.
//
// Raw holds the offending payload, truncated for display.
type ParseError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%v: %s", ErrMalformedFrame, e.Reason)
	if e.Raw != "" {
		msg += fmt.Sprintf(" (%q)", Truncate(e.Raw, 80))
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrMalformedFrame }

// ValidationError blocks a configuration submission before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ServerRejection is a non-2xx answer from any endpoint. Message is the server's text verbatim.
type ServerRejection struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *ServerRejection) Error() string {
	return fmt.Sprintf("%v: %s returned %d: %s", ErrServerRejected, e.Endpoint, e.StatusCode, e.Message)
}

func (e *ServerRejection) Is(target error) bool { return target == ErrServerRejected }

// UserMessage returns the text to show a user for err: the server's message for rejections,
// the field and reason for validation failures, and the error text otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var rejection *ServerRejection
	if errors.As(err, &rejection) {
		return rejection.Message
	}

	var invalid *ValidationError
	if errors.As(err, &invalid) {
		return fmt.Sprintf("%s: %s", invalid.Field, invalid.Reason)
	}

	return err.Error()
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
