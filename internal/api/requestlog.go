package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"resourcedesk/pkg/logging"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// RequestLogger tags each request with an id (X-Request-ID, or a fresh
// uuid), stores a request-scoped entry in the context and logs completion.
func RequestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)

			entry := log.WithFields(logrus.Fields{
				"request_id": reqID,
				"method":     r.Method,
				"path":       r.URL.Path,
			})
			ctx := logging.WithRequestID(r.Context(), reqID)
			ctx = logging.WithLogger(ctx, entry)

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r.WithContext(ctx))
			if sw.status == 0 {
				sw.status = http.StatusOK
			}

			fields := logrus.Fields{
				"status":     sw.status,
				"elapsed_ms": time.Since(start).Milliseconds(),
			}
			switch {
			case sw.status >= 500:
				entry.WithFields(fields).Error("request failed")
			case sw.status >= 400:
				entry.WithFields(fields).Warn("request refused")
			default:
				entry.WithFields(fields).Info("request served")
			}
		})
	}
}
