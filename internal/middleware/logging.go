package middleware

import (
	"net/http"
	"time"

	"github.com/topicless/hub/internal/logging"
)

// RequestLogger emits one structured log line per request.
type RequestLogger struct {
	logger *logging.Logger
}

func NewRequestLogger(logger *logging.Logger) *RequestLogger {
	return &RequestLogger{logger: logger}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (rl *RequestLogger) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		fields := map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_ip":   GetClientIP(r),
		}
		if q := r.URL.RawQuery; q != "" {
			fields["query"] = q
		}

		switch {
		case rec.status >= http.StatusInternalServerError:
			rl.logger.Error("request failed", fields)
		case rec.status >= http.StatusBadRequest:
			rl.logger.Warn("request rejected", fields)
		default:
			rl.logger.Info("request", fields)
		}
	})
}
