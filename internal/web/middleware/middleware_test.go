package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loudsight/signin/internal/auth"
	"github.com/loudsight/signin/internal/config"
	"github.com/loudsight/signin/internal/observability"
)

// fakeSessions resolves the principal from an X-Test-Principal header
type fakeSessions struct{}

func (fakeSessions) Principal(r *http.Request) (string, error) {
	if p := r.Header.Get("X-Test-Principal"); p != "" {
		return p, nil
	}
	return "", auth.ErrNoSession
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func TestPathMatcher(t *testing.T) {
	m := NewPathMatcher([]string{"/signin", "/static/**", "/*.ico", "/app/signin"})

	tests := []struct {
		path string
		want bool
	}{
		{"/signin", true},
		{"/signin/extra", false},
		{"/static", true},
		{"/static/css/signin.css", true},
		{"/staticfile", false},
		{"/favicon.ico", true},
		{"/img/favicon.ico", false},
		{"/app/signin", true},
		{"/", false},
		{"/dashboard", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.path))
		})
	}
}

func TestRequireSession(t *testing.T) {
	public := NewPathMatcher([]string{"/signin", "/static/**"})

	var seen string
	handler := RequireSession(fakeSessions{}, public, "/signin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("public path passes without session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("dot segments do not escape the public prefix", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.URL.Path = "/static/../dashboard"
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("non-canonical spellings of public paths need a session", func(t *testing.T) {
		for _, target := range []string{
			"/signin/",
			"/signin/.",
			"//signin",
			"/static/./app.js",
			"/sign%69n",
			"/static%2Fapp.js",
		} {
			t.Run(target, func(t *testing.T) {
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
				assert.Equal(t, http.StatusSeeOther, rec.Code)
				assert.Equal(t, "/signin", rec.Header().Get("Location"))
			})
		}
	})

	t.Run("preflight passes without session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/things", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("protected path redirects to sign-in", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/signin", rec.Header().Get("Location"))
	})

	t.Run("htmx request gets HX-Redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "/signin", rec.Header().Get("HX-Redirect"))
	})

	t.Run("principal is placed in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("X-Test-Principal", "user@example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user@example.com", seen)
	})
}

func TestLoggingMiddleware(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(LoggingMiddleware(logger))
	r.Use(RequireSession(fakeSessions{}, NewPathMatcher([]string{"/signin"}), "/signin"))
	r.Get("/signin", okHandler().ServeHTTP)
	r.Get("/dashboard", okHandler().ServeHTTP)
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	})

	t.Run("anonymous request", func(t *testing.T) {
		hook.Reset()
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/signin", nil))

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, logrus.InfoLevel, entry.Level)
		assert.Equal(t, "GET", entry.Data["method"])
		assert.Equal(t, "/signin", entry.Data["path"])
		assert.Equal(t, http.StatusOK, entry.Data["status"])
		assert.Equal(t, 2, entry.Data["bytes"])
		assert.Equal(t, "-", entry.Data["principal"])
		assert.NotEmpty(t, entry.Data["request_id"])
	})

	t.Run("principal reported by the gate", func(t *testing.T) {
		hook.Reset()
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("X-Test-Principal", "user@example.com")
		r.ServeHTTP(httptest.NewRecorder(), req)

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, "user@example.com", entry.Data["principal"])
	})

	t.Run("redirect logged at info", func(t *testing.T) {
		hook.Reset()
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, http.StatusSeeOther, entry.Data["status"])
		assert.Equal(t, logrus.InfoLevel, entry.Level)
	})

	t.Run("server errors logged at error", func(t *testing.T) {
		hook.Reset()
		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		req.Header.Set("X-Test-Principal", "user@example.com")
		r.ServeHTTP(httptest.NewRecorder(), req)

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, logrus.ErrorLevel, entry.Level)
	})
}

func TestSecurityHeaders(t *testing.T) {
	cfg := config.Default()

	t.Run("http base url omits HSTS", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SecurityHeaders(cfg)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
		assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
		assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	})

	t.Run("https base url sets HSTS", func(t *testing.T) {
		httpsCfg := config.Default()
		httpsCfg.Server.BaseURL = "https://signin.example.com"

		rec := httptest.NewRecorder()
		SecurityHeaders(httpsCfg)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
	})

	t.Run("empty header values are skipped", func(t *testing.T) {
		bare := config.Default()
		bare.Server.Security.Headers = config.SecurityHeadersConfig{}

		rec := httptest.NewRecorder()
		SecurityHeaders(bare)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		_, present := rec.Header()["X-Frame-Options"]
		assert.False(t, present)
	})
}

func TestMaxBytesMiddleware(t *testing.T) {
	var readErr error
	handler := MaxBytesMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		for {
			_, err := r.Body.Read(buf)
			if err != nil {
				readErr = err
				break
			}
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("declared oversized body rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader("0123456789")))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("undeclared oversized body capped", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader("0123456789"))
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var maxErr *http.MaxBytesError
		assert.True(t, errors.As(readErr, &maxErr))
	})

	t.Run("small body passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader("tiny")))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMetricsMiddleware(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(metrics))
	r.Get("/media/{id}", okHandler().ServeHTTP)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/media/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/media/2", nil))

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/media/{id}", "200")))
}
