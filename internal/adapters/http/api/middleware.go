package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/diploma/pkg/metrics"
	"golang.org/x/time/rate"
)

// statusRecorder remembers the status a handler wrote and, when the response
// went through writeError, the API error code it carried.
type statusRecorder struct {
	http.ResponseWriter
	status int
	code   string
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) setErrorCode(code string) { r.code = code }

// errorCode is the label used for failed requests. Responses not produced by
// writeError (the mux's own 404s and 405s) are named from their status.
func (r *statusRecorder) errorCode() string {
	if r.code != "" {
		return r.code
	}
	switch {
	case r.status == http.StatusNotFound:
		return "not_found"
	case r.status == http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case r.status >= http.StatusInternalServerError:
		return "internal_error"
	default:
		return "bad_request"
	}
}

// errorCodeSetter is satisfied by statusRecorder; writeError reports through it.
type errorCodeSetter interface {
	setErrorCode(code string)
}

// MetricsMiddleware records request counts and latency for endpoint, and for
// failures the API error code with a severity.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		durationMs := float64(time.Since(start).Milliseconds())
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if rec.status < http.StatusBadRequest {
			return
		}
		code := rec.errorCode()
		metrics.RecordErrorByEndpoint(endpoint, r.Method, code)
		metrics.RecordErrorByType(code, severity(rec.status, code))
		metrics.RecordErrorLatency("http", code, durationMs)
	}
}

// severity grades a failed request; shed load is low.
func severity(status int, code string) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "high"
	case code == "backpressure" || code == "rate_limited":
		return "low"
	default:
		return "medium"
	}
}

// RateLimitMiddleware rejects requests once the shared token bucket is empty.
// A nil limiter passes every request through.
func RateLimitMiddleware(limiter *rate.Limiter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, NewKind("api.ratelimit", ErrRateLimited))
				return
			}
			next(w, r)
		}
	}
}
