// Package web assembles the HTTP router for the sign-in service.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/loudsight/signin/internal/auth"
	"github.com/loudsight/signin/internal/config"
	"github.com/loudsight/signin/internal/observability"
	"github.com/loudsight/signin/internal/web/handlers"
	webmiddleware "github.com/loudsight/signin/internal/web/middleware"
)

// NewRouter wires middleware and routes. Paths matching the configured public
// patterns are reachable without a session; everything else needs one.
func NewRouter(cfg *config.Config, sessionManager *auth.SessionManager, metrics *observability.Metrics, logger logrus.FieldLogger) http.Handler {
	h := handlers.New(sessionManager, metrics, logger, cfg.Web.StaticDir)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(webmiddleware.LoggingMiddleware(logger))
	r.Use(webmiddleware.MetricsMiddleware(metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.HandlerTimeout()))
	r.Use(webmiddleware.SecurityHeaders(cfg))
	r.Use(webmiddleware.MaxBytesMiddleware(cfg.Server.Security.MaxRequestBytes))
	r.Use(webmiddleware.RequireSession(
		sessionManager,
		webmiddleware.NewPathMatcher(cfg.PublicPatterns()),
		handlers.SignInPath,
	))

	// Public routes
	r.Get(handlers.SignInPath, h.SignIn)
	r.Post(handlers.SignInPath, h.SignInSubmit)
	r.Get("/signout", h.SignOut)
	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, cfg.Web.MetricsPath, metrics.Handler())
	r.Get("/static/*", h.ServeStatic)

	// Everything else is the signed-in app
	r.Get("/*", h.App)

	r.NotFound(h.NotFound)

	return otelhttp.NewHandler(r, "signin")
}
