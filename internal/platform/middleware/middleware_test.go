// Copyright (c) 2026 Phoenix PME. All rights reserved.

package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/constants"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/ctxutil"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/middleware"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/sec"
)

// stubVerifier accepts exactly one token string.
type stubVerifier struct {
	token  string
	claims *sec.AuthClaims
}

func (s *stubVerifier) VerifyAccessToken(tokenString string) *sec.AuthClaims {
	if tokenString == s.token {
		return s.claims
	}
	return nil
}

/*
TestRequestID covers ID generation and client-provided passthrough.
*/
func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetRequestID(r.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, recorder.Header().Get(constants.HeaderXRequestID))

	// A client-provided ID is preserved.
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "client-id")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.Equal(t, "client-id", seen)
}

/*
TestAuthenticate_HeaderParsing drives the Bearer scheme grid through the
middleware, including case-insensitive schemes and malformed headers.
*/
func TestAuthenticate_HeaderParsing(t *testing.T) {
	verifier := &stubVerifier{
		token:  "valid-token",
		claims: &sec.AuthClaims{UserID: "user-1", Role: "buyer"},
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantAuthed bool
	}{
		{"no_header_is_anonymous", "", http.StatusOK, false},
		{"valid_bearer", "Bearer valid-token", http.StatusOK, true},
		{"lowercase_scheme", "bearer valid-token", http.StatusOK, true},
		{"wrong_scheme", "Basic valid-token", http.StatusUnauthorized, false},
		{"scheme_without_token", "Bearer", http.StatusUnauthorized, false},
		{"unknown_token", "Bearer other-token", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *sec.AuthClaims
			reached := false
			handler := middleware.Authenticate(verifier)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				reached = true
				got = middleware.GetUser(r.Context())
			}))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				request.Header.Set(constants.HeaderAuthorization, tt.header)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantStatus == http.StatusOK {
				require.True(t, reached)
			}
			if tt.wantAuthed {
				require.NotNil(t, got)
				assert.Equal(t, "user-1", got.UserID)
			} else if reached {
				assert.Nil(t, got)
			}
		})
	}
}

/*
TestStructuredLogger_FinalEntry checks the completion log fields and that
no stale identity attribute leaks in from the pre-handler context.
*/
func TestStructuredLogger_FinalEntry(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))

	handler := middleware.StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Authentication downstream enriches its own context copy only;
		// the logger must not pretend to know the identity.
		_ = ctxutil.WithAuthUser(r.Context(), &sec.AuthClaims{UserID: "user-1"})
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))

	entry := buffer.String()
	assert.Contains(t, entry, "http_request_finished")
	assert.Contains(t, entry, "418")
	assert.Contains(t, entry, "/teapot")
	assert.NotContains(t, entry, "user_id")
}

/*
TestRealIP prefers proxy headers over the socket address.
*/
func TestRealIP(t *testing.T) {
	tests := []struct {
		name       string
		realIP     string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"x_real_ip", "203.0.113.7", "", "10.0.0.1:1234", "203.0.113.7"},
		{"forwarded_first_hop", "", "203.0.113.9, 10.0.0.2", "10.0.0.1:1234", "203.0.113.9"},
		{"socket_fallback", "", "", "10.0.0.1:1234", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				request.Header.Set(constants.HeaderXRealIP, tt.realIP)
			}
			if tt.forwarded != "" {
				request.Header.Set(constants.HeaderXForwardedFor, tt.forwarded)
			}
			assert.Equal(t, tt.want, middleware.RealIP(request))
		})
	}
}
