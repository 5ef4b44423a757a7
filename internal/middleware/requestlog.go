package middleware

import (
	"net/http"
	"time"

	"proctorfeed/internal/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs every request at debug level, and failed ones as warnings.
func RequestLogger(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			format := "%s %s status=%d bytes=%d duration_ms=%d request_id=%s"
			args := []interface{}{r.Method, r.URL.Path, status, ww.BytesWritten(),
				time.Since(start).Milliseconds(), chimw.GetReqID(r.Context())}
			if status >= 500 {
				logger.Warning(format, args...)
			} else {
				logger.Debug(format, args...)
			}
		})
	}
}
