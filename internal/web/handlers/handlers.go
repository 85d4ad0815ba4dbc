package handlers

import (
	"encoding/json"
	"net/http"
	"path"

	"github.com/sirupsen/logrus"

	"github.com/loudsight/signin/internal/auth"
	"github.com/loudsight/signin/internal/observability"
	"github.com/loudsight/signin/internal/version"
	"github.com/loudsight/signin/internal/view"
)

// SignInPath is where the sign-in page is served and where the gate sends anonymous users
const SignInPath = "/signin"

// Handlers holds dependencies for HTTP handlers
type Handlers struct {
	sessionManager *auth.SessionManager
	metrics        *observability.Metrics
	logger         logrus.FieldLogger
	staticDir      string
}

// New creates a new Handlers instance. An empty staticDir disables asset serving.
func New(sessionManager *auth.SessionManager, metrics *observability.Metrics, logger logrus.FieldLogger, staticDir string) *Handlers {
	return &Handlers{
		sessionManager: sessionManager,
		metrics:        metrics,
		logger:         logger,
		staticDir:      staticDir,
	}
}

// SignIn serves the sign-in page
func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	page, err := view.Bytes()
	if err != nil {
		h.metrics.PageRenderErrors.Inc()
		h.logger.WithError(err).Error("Error rendering sign-in page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(page); err != nil {
		h.logger.WithError(err).Debug("Client went away while writing sign-in page")
		return
	}
	h.metrics.PageRendersTotal.Inc()
}

// SignInSubmit answers native form posts from the sign-in page.
// Credentials are verified by the identity service, not here, so the body is never read.
func (h *Handlers) SignInSubmit(w http.ResponseWriter, r *http.Request) {
	h.logger.WithField("remote_addr", r.RemoteAddr).Warn("Credential sign-in posted to a server that does not verify credentials")
	http.Error(w, "Credential sign-in is not available", http.StatusNotImplemented)
}

// SignOut expires the session cookie and returns to the sign-in page
func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Clear(w, r); err != nil {
		// Log error but continue with sign out
		h.logger.WithError(err).Warn("Error clearing session")
	}
	http.Redirect(w, r, SignInPath, http.StatusSeeOther)
}

// Health reports liveness and the running version
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}

// ServeStatic serves files below /static/ from the static directory
func (h *Handlers) ServeStatic(w http.ResponseWriter, r *http.Request) {
	if !h.serveAsset(w, r, r.URL.Path) {
		h.NotFound(w, r)
	}
}

// App serves the single-page app for signed-in users, falling back to index.html
// for client-side routes
func (h *Handlers) App(w http.ResponseWriter, r *http.Request) {
	if h.serveAsset(w, r, r.URL.Path) {
		return
	}
	if h.serveAsset(w, r, "/index.html") {
		return
	}
	h.NotFound(w, r)
}

// serveAsset writes the regular file at name below the static directory
// and reports whether one was found
func (h *Handlers) serveAsset(w http.ResponseWriter, r *http.Request, name string) bool {
	if h.staticDir == "" {
		return false
	}

	// http.Dir rejects paths that climb out of the root
	f, err := http.Dir(h.staticDir).Open(path.Clean("/" + name))
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() || !info.Mode().IsRegular() {
		return false
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}

// NotFound answers unknown routes
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Not Found", http.StatusNotFound)
}
