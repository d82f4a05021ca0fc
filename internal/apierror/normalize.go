// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apierror

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// FallbackMessage is returned when no rule produces a message.
const FallbackMessage = "An unexpected error occurred"

// Rule extracts a message from a failed call. ok is false when the rule
// does not apply.
type Rule func(e *Error) (msg string, ok bool)

// rules are applied in order; the first match wins. Backend payload shapes
// differ per endpoint and callers rely on this exact priority.
var rules = []Rule{
	ResultsDetail,
	DataMessage,
	DataError,
	TransportMessage,
}

// Normalize reduces err to a single human-readable message.
func Normalize(err error) string {
	if err == nil {
		return FallbackMessage
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = &Error{Message: err.Error()}
	}

	for _, rule := range rules {
		if msg, ok := rule(apiErr); ok {
			return msg
		}
	}
	return FallbackMessage
}

// ResultsDetail reads results.detail: a list is joined with ", ", anything
// else is returned as text.
func ResultsDetail(e *Error) (string, bool) {
	detail := field(e, "results.detail")
	if !truthy(detail) {
		return "", false
	}
	if detail.IsArray() {
		parts := make([]string, 0, len(detail.Array()))
		for _, item := range detail.Array() {
			parts = append(parts, text(item))
		}
		return strings.Join(parts, ", "), true
	}
	return text(detail), true
}

// DataMessage reads the top-level message field.
func DataMessage(e *Error) (string, bool) {
	return scalar(field(e, "message"))
}

// DataError reads the top-level error field.
func DataError(e *Error) (string, bool) {
	return scalar(field(e, "error"))
}

// TransportMessage returns the transport-level message.
func TransportMessage(e *Error) (string, bool) {
	if e.Message == "" {
		return "", false
	}
	return e.Message, true
}

func field(e *Error, path string) gjson.Result {
	if len(e.Body) == 0 || !gjson.ValidBytes(e.Body) {
		return gjson.Result{}
	}
	return gjson.GetBytes(e.Body, path)
}

func scalar(r gjson.Result) (string, bool) {
	if !truthy(r) {
		return "", false
	}
	return text(r), true
}

// truthy mirrors how the backend's clients probe optional fields: missing,
// null, false, 0 and "" do not count.
func truthy(r gjson.Result) bool {
	if !r.Exists() {
		return false
	}
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	default:
		return true
	}
}

func text(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.Str
	}
	if r.Type == gjson.Null {
		return "null"
	}
	return r.Raw
}
