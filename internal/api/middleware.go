package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"van-route-service/internal/platform/metrics"
)

// statusWriter captures the final HTTP status code and number of bytes
// written. This helps distinguish "handler returned 200" from "client
// received a response".
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Record implicit 200 responses when handlers write without calling
// WriteHeader.
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// loggingMiddleware logs end-to-end request duration and response size
// and feeds the request counters.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{
			ResponseWriter: w,
			status:         0,
		}

		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		route := r.Method + " " + routeLabel(r.URL.Path)

		metrics.HTTPRequests.WithLabelValues(route, fmt.Sprintf("%dxx", sw.status/100)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		log.Printf(
			"method=%s path=%s status=%d bytes=%d dur=%dms",
			r.Method, r.URL.RequestURI(), sw.status, sw.bytes, elapsed.Milliseconds(),
		)
	})
}

// routeLabel collapses session IDs out of the path so the request
// metrics keep a bounded label set.
func routeLabel(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) >= 3 && parts[1] == "plans" && parts[2] != "" {
		parts[2] = "{id}"
	}
	return strings.Join(parts, "/")
}
