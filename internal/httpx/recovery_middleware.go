package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

func RecoveryMiddleware(rs *Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := wrapResponseWriter(w)
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					rs.Logger.Error("panic recovered",
						slog.String("request_id", RequestIDFrom(r)),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
					)
					if !rw.wroteHeader() {
						rs.Error(rw, r, fmt.Errorf("panic: %v", rec))
					}
				}
			}()
			next.ServeHTTP(rw, r)
		})
	}
}
