package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/conduit-lang/excellent/internal/web/auth"
	"github.com/conduit-lang/excellent/internal/web/response"
)

// SubjectKey is the context key for the authenticated token subject
const SubjectKey ContextKey = "subject"

// Auth requires a valid bearer token on every request except skipPaths. The
// token may also be passed as the token query parameter, since browsers can't
// set headers on websocket handshakes.
func Auth(tokens *auth.TokenService, skipPaths ...string) Middleware {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token := r.URL.Query().Get("token")
			if header := r.Header.Get("Authorization"); header != "" {
				scheme, value, ok := strings.Cut(header, " ")
				if !ok || scheme != "Bearer" || value == "" {
					response.Error(w, http.StatusUnauthorized, "", "Invalid authorization format")
					return
				}
				token = value
			}

			if token == "" {
				response.Error(w, http.StatusUnauthorized, "", "Authorization required")
				return
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "", "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject returns the authenticated subject from the context
func GetSubject(ctx context.Context) string {
	subject, _ := ctx.Value(SubjectKey).(string)
	return subject
}
