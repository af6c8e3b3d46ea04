// Package svcerr defines the error taxonomy shared by every outbound
// service client (Plex, Radarr, qBittorrent, Telegram): transport
// failures, HTTP protocol errors, and malformed responses are kept
// distinct so callers can decide skip vs abort vs retry without
// string-matching error text.
package svcerr

import (
	"errors"
	"fmt"
)

// TransportError wraps a network-level failure (dial, timeout,
// connection reset) talking to an external service.
type TransportError struct {
	Service string
	Cause   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Service, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

func Transport(service string, cause error) error {
	return &TransportError{Service: service, Cause: cause}
}

// ProtocolError wraps an HTTP response with status >= 400.
type ProtocolError struct {
	Service string
	Status  int
	Excerpt string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol error: status %d: %s", e.Service, e.Status, e.Excerpt)
}

func Protocol(service string, status int, excerpt string) error {
	return &ProtocolError{Service: service, Status: status, Excerpt: excerpt}
}

// MalformedError wraps a response-parsing failure.
type MalformedError struct {
	Service string
	Cause   error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Service, e.Cause)
}

func (e *MalformedError) Unwrap() error { return e.Cause }

func Malformed(service string, cause error) error {
	return &MalformedError{Service: service, Cause: cause}
}

// NotFoundError is an informational outcome, not a failure: callers
// treat it as a {skip, ...} result rather than propagating an error
// upward as fatal.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Entity)
}

func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsProtocol reports whether err is (or wraps) a ProtocolError.
func IsProtocol(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}

// IsMalformed reports whether err is (or wraps) a MalformedError.
func IsMalformed(err error) bool {
	var target *MalformedError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
