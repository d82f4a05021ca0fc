// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apierror defines the error value returned for failed backend calls
// and reduces the backend's inconsistent error payloads to one message.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed request.
type Kind int

// Failure kinds.
const (
	KindUnknown        Kind = iota
	KindNetwork             // transport failure, no response
	KindAuthentication      // 401
	KindAuthorization       // 403
	KindValidation          // other 4xx
	KindServer              // 5xx
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// KindOf classifies an HTTP status code. Status 0 means no response.
func KindOf(status int) Kind {
	switch {
	case status == 0:
		return KindNetwork
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status >= 400 && status < 500:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// ErrSessionExpired is wrapped by errors of requests that were rejected with
// 401 after the session had been torn down.
var ErrSessionExpired = errors.New("session expired")

// Error is a failed backend call.
type Error struct {
	Kind    Kind
	Status  int    // 0 when no response was received
	Method  string
	Route   string
	Body    []byte // raw response body, may be empty
	Message string // transport-level message
	Err     error  // underlying cause, if any
}

// Error implements error.
func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Route, e.Message)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Route, e.Status, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// FromResponse builds an Error for a non-2xx response.
func FromResponse(method, route string, status int, body []byte) *Error {
	e := &Error{
		Kind:    KindOf(status),
		Status:  status,
		Method:  method,
		Route:   route,
		Body:    body,
		Message: fmt.Sprintf("request failed with status code %d", status),
	}
	if e.Kind == KindAuthentication {
		e.Err = ErrSessionExpired
	}
	return e
}

// FromTransport builds an Error for a request that got no response.
func FromTransport(method, route string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Method:  method,
		Route:   route,
		Message: err.Error(),
		Err:     err,
	}
}

// KindFor returns the kind of err, or KindUnknown if err is not an *Error.
func KindFor(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsAuthentication reports whether err is a rejected-session failure.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrSessionExpired) || KindFor(err) == KindAuthentication
}
