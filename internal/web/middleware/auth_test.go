package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/conduit-lang/excellent/internal/web/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth(t *testing.T) {
	tokens := auth.NewTokenService("secret", time.Hour)
	valid, err := tokens.GenerateToken("vscode")
	require.NoError(t, err)

	var subject string
	handler := Auth(tokens, "/healthz")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = GetSubject(r.Context())
	}))

	tests := []struct {
		name        string
		path        string
		header      string
		wantStatus  int
		wantSubject string
	}{
		{"bearer token", "/api/v1/scan", "Bearer " + valid, http.StatusOK, "vscode"},
		{"query token", "/api/v1/live?token=" + valid, "", http.StatusOK, "vscode"},
		{"skipped path", "/healthz", "", http.StatusOK, ""},
		{"missing", "/api/v1/scan", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/api/v1/scan", "Basic " + valid, http.StatusUnauthorized, ""},
		{"no token", "/api/v1/scan", "Bearer", http.StatusUnauthorized, ""},
		{"invalid", "/api/v1/scan", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject = ""
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantSubject, subject)
		})
	}
}
