package http

import (
	"net/http"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/devnla/backend-express/internal/common/constants"
	commonerrors "github.com/devnla/backend-express/internal/common/errors"
	"github.com/devnla/backend-express/internal/common/httpmetrics"
	"github.com/devnla/backend-express/internal/common/logger"
)

const apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// BuildBaseHandler wraps the service mux with the middleware every route
// shares. The span and trace id come first so every later layer can log them.
func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	collector := httpmetrics.New()
	chain := []func(http.Handler) http.Handler{
		SecurityHeadersMiddleware,
		TracingMiddleware,
		TraceIDMiddleware,
		AccessLogMiddleware(log),
		RecoveryMiddleware(log),
		MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize),
		collector.Wrap,
	}

	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler
}

// TracingMiddleware opens a server span per request and continues the
// caller's traceparent when the global propagator understands it.
func TracingMiddleware(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + httpmetrics.RouteLabel(r.URL.Path)
		}),
	)
}

func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		h.Set("Content-Security-Policy", apiContentSecurityPolicy)
		next.ServeHTTP(w, r)
	})
}

func RecoveryMiddleware(log *logger.Logger) func(next http.Handler) http.Handler {
	errs := NewErrorHandler(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.WithFields(r.Context(), logger.Fields{
						"action": "panic_recovered",
						"path":   r.URL.Path,
					}).Criticalf("panic recovered: %v\n%s", rec, debug.Stack())
					errs.HandleError(w, r, commonerrors.ErrInternalError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// MaxRequestSizeMiddleware rejects declared oversize bodies up front and caps
// the rest at read time; DecodeJSON turns the cap into REQUEST_TOO_LARGE.
func MaxRequestSizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = constants.DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				WriteErrorEnvelope(w, http.StatusRequestEntityTooLarge, CodeRequestTooLarge, "request body too large", nil, TraceIDFromContext(r.Context()))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// AccessLogMiddleware writes one line per request. Health probes are logged
// at debug level to keep the log readable under orchestrator polling.
func AccessLogMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lw, r)

			if lw.status == 0 {
				lw.status = http.StatusOK
			}
			entry := log.WithFields(r.Context(), logger.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      lw.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"client_ip":   GetClientIP(r),
				"action":      "http_request",
			})
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				entry.Debug("request served")
				return
			}
			entry.Info("request served")
		})
	}
}
