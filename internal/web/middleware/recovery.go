package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/conduit-lang/excellent/internal/web/response"
	"go.uber.org/zap"
)

// Recovery turns a panicking handler into a JSON 500 response and logs the panic
// with its stack
func Recovery(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}

					logger.Error("panic recovered",
						zap.String("request_id", GetRequestID(r.Context())),
						zap.String("panic", fmt.Sprint(v)),
						zap.ByteString("stack", debug.Stack()),
					)

					response.Error(w, http.StatusInternalServerError, "", "An unexpected error occurred")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
