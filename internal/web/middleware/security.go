package middleware

import (
	"net/http"

	"github.com/loudsight/signin/internal/config"
)

// SecurityHeaders adds the configured HTTP security headers to all responses
func SecurityHeaders(cfg *config.Config) func(http.Handler) http.Handler {
	headers := cfg.Server.Security.Headers
	set := map[string]string{
		"X-Frame-Options":         headers.XFrameOptions,
		"X-Content-Type-Options":  headers.XContentTypeOptions,
		"Referrer-Policy":         headers.ReferrerPolicy,
		"Content-Security-Policy": headers.ContentSecurityPolicy,
	}
	// HSTS only makes sense when the public URL is HTTPS
	if cfg.IsHTTPS() {
		set["Strict-Transport-Security"] = headers.StrictTransportSecurity
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for name, value := range set {
				if value != "" {
					w.Header().Set(name, value)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
