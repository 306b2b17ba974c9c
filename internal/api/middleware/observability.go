package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
)

// ObservabilityMiddleware opens one span per request and records request
// metrics labelled by route and route group. Hospital ids never reach a label.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy := policyFor(r.URL.Path)

			ctx, span := observability.StartSpan(r.Context(), r.Method+" "+policy.label)
			defer span.End()

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", policy.label),
				attribute.String("erwait.route_group", string(policy.group)),
			}
			if policy.group == RouteGroupPredict {
				if urgency := r.URL.Query().Get("urgency"); urgency != "" {
					attrs = append(attrs, attribute.String("erwait.urgency", urgency))
				}
			}
			observability.SetSpanAttributes(span, attrs...)

			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(sw, r.WithContext(ctx))
			elapsed := time.Since(start)

			status := sw.Status()
			observability.RecordRequestMetric(ctx, metrics, r.Method, policy.label, status, elapsed)
			observability.ObserveHTTPRequest(string(policy.group), status, elapsed)

			observability.SetSpanAttributes(span, attribute.Int("http.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		})
	}
}

// statusWriter remembers the first status sent. A handler that writes a body
// without calling WriteHeader has answered 200.
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

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Status is the recorded status, 200 when nothing was written.
func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
