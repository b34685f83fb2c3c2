package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind says where a call failed. Callers branch on it to pick a message or
// decide whether a retry makes sense.
type Kind int

const (
	// KindNetwork: no response was received (connectivity, DNS, CORS-like refusals).
	KindNetwork Kind = iota + 1
	// KindTimeout: the fixed per-call ceiling elapsed.
	KindTimeout
	// KindServer: the API answered with an error status or a failed envelope.
	KindServer
	// KindRequest: the request could not be built (bad path, unserializable body).
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that does not succeed.
type Error struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		msg := e.Message
		if msg == "" {
			msg = http.StatusText(e.Status)
		}
		return fmt.Sprintf("admin api %s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
	default:
		if e.Err != nil {
			return fmt.Sprintf("admin api %s %s: %s error: %v", e.Method, e.Path, e.Kind, e.Err)
		}
		return fmt.Sprintf("admin api %s %s: %s error", e.Method, e.Path, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// FieldErrors exposes server-side validation details, keyed by field name.
func (e *Error) FieldErrors() map[string][]string { return e.Fields }

// ServerMessage is the message the API sent, if any.
func (e *Error) ServerMessage() string { return e.Message }

// Retryable reports transient failures: no response, timeout, or 5xx.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout:
		return !errors.Is(e.Err, context.Canceled)
	case KindServer:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// KindOf returns the Kind of an *Error anywhere in err's chain, or 0.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }
func IsForbidden(err error) bool    { return StatusOf(err) == http.StatusForbidden }
func IsNotFound(err error) bool     { return StatusOf(err) == http.StatusNotFound }

// IsRetryable reports whether err is an *Error worth retrying.
func IsRetryable(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Retryable()
	}
	return false
}

func transportError(method, path string, err error) *Error {
	kind := KindNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Method: method, Path: path, Err: err}
}
