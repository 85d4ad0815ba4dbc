package middleware

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// LoggingMiddleware logs HTTP requests with method, path, status, duration and principal
func LoggingMiddleware(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := newResponseWriter(w)

			// The session gate stores the principal on a derived request,
			// so capture it through the context it hands downstream.
			var principal string
			next.ServeHTTP(rw, r.WithContext(withPrincipalSink(r.Context(), &principal)))

			if principal == "" {
				principal = "-"
			}

			entry := logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rw.statusCode,
				"duration":   time.Since(start).Round(time.Millisecond).String(),
				"bytes":      rw.written,
				"request_id": chimiddleware.GetReqID(r.Context()),
				"principal":  principal,
			})

			switch {
			case rw.statusCode >= http.StatusInternalServerError:
				entry.Error("request")
			case rw.statusCode >= http.StatusBadRequest:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
		})
	}
}

type principalSinkKey struct{}

// withPrincipalSink lets an inner middleware report the principal back to the logger
func withPrincipalSink(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, principalSinkKey{}, sink)
}

func reportPrincipal(ctx context.Context, principal string) {
	if sink, ok := ctx.Value(principalSinkKey{}).(*string); ok {
		*sink = principal
	}
}
