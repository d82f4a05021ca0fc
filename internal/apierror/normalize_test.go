// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func respErr(status int, body string) error {
	return FromResponse(http.MethodGet, "x/", status, []byte(body))
}

func TestNormalize_Precedence(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "detail list wins over message",
			err:  respErr(400, `{"results":{"detail":["a","b"]},"message":"m"}`),
			want: "a, b",
		},
		{
			name: "detail string",
			err:  respErr(400, `{"results":{"detail":"Invalid email"},"error":"e"}`),
			want: "Invalid email",
		},
		{
			name: "empty detail list still wins",
			err:  respErr(400, `{"results":{"detail":[]},"message":"m"}`),
			want: "",
		},
		{
			name: "empty detail string skipped",
			err:  respErr(400, `{"results":{"detail":""},"message":"m"}`),
			want: "m",
		},
		{
			name: "message over error",
			err:  respErr(400, `{"message":"m","error":"e"}`),
			want: "m",
		},
		{
			name: "error field",
			err:  respErr(409, `{"error":"duplicate url"}`),
			want: "duplicate url",
		},
		{
			name: "null message falls through",
			err:  respErr(400, `{"message":null,"error":"e"}`),
			want: "e",
		},
		{
			name: "non json body uses transport message",
			err:  respErr(502, `<html>bad gateway</html>`),
			want: "request failed with status code 502",
		},
		{
			name: "network failure",
			err:  FromTransport(http.MethodGet, "x/", errors.New("dial tcp: connection refused")),
			want: "dial tcp: connection refused",
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "boom",
		},
		{
			name: "wrapped api error",
			err:  fmt.Errorf("listing: %w", respErr(400, `{"message":"bad page"}`)),
			want: "bad page",
		},
		{
			name: "nil",
			err:  nil,
			want: FallbackMessage,
		},
		{
			name: "empty everything",
			err:  &Error{},
			want: FallbackMessage,
		},
		{
			name: "numeric detail items",
			err:  respErr(400, `{"results":{"detail":[1,"x"]}}`),
			want: "1, x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.err))
		})
	}
}

func TestRulesAreIndependent(t *testing.T) {
	e := &Error{Body: []byte(`{"message":"m"}`), Message: "transport"}

	_, ok := ResultsDetail(e)
	assert.False(t, ok)

	msg, ok := DataMessage(e)
	assert.True(t, ok)
	assert.Equal(t, "m", msg)

	_, ok = DataError(e)
	assert.False(t, ok)

	msg, ok = TransportMessage(e)
	assert.True(t, ok)
	assert.Equal(t, "transport", msg)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNetwork, KindOf(0))
	assert.Equal(t, KindAuthentication, KindOf(401))
	assert.Equal(t, KindAuthorization, KindOf(403))
	assert.Equal(t, KindValidation, KindOf(422))
	assert.Equal(t, KindServer, KindOf(503))
	assert.Equal(t, KindUnknown, KindOf(302))
}

func TestIsAuthentication(t *testing.T) {
	assert.True(t, IsAuthentication(respErr(401, "")))
	assert.True(t, IsAuthentication(fmt.Errorf("wrap: %w", ErrSessionExpired)))
	assert.False(t, IsAuthentication(respErr(403, "")))
	assert.False(t, IsAuthentication(errors.New("x")))
}
