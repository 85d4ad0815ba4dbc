package middleware

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/loudsight/signin/internal/auth"
)

// PrincipalReader resolves the signed-in principal for a request
type PrincipalReader interface {
	Principal(r *http.Request) (string, error)
}

// PathMatcher reports whether a request path matches any public pattern.
// Patterns are exact paths, a prefix ending in "/**" (the prefix and
// everything below it), or path.Match globs within a segment.
type PathMatcher struct {
	exact    map[string]struct{}
	prefixes []string
	globs    []string
}

// NewPathMatcher compiles patterns into a matcher
func NewPathMatcher(patterns []string) *PathMatcher {
	m := &PathMatcher{exact: make(map[string]struct{})}
	for _, p := range patterns {
		switch {
		case strings.HasSuffix(p, "/**"):
			m.prefixes = append(m.prefixes, strings.TrimSuffix(p, "/**"))
		case strings.ContainsAny(p, "*?["):
			m.globs = append(m.globs, p)
		default:
			m.exact[p] = struct{}{}
		}
	}
	return m
}

// Match reports whether p is public
func (m *PathMatcher) Match(p string) bool {
	if _, ok := m.exact[p]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	for _, g := range m.globs {
		if ok, _ := path.Match(g, p); ok {
			return true
		}
	}
	return false
}

// canonicalPath returns the request path when the router will see exactly
// the string the matcher sees: no escaped bytes kept in RawPath, no dot
// segments, no doubled or trailing slashes.
func canonicalPath(u *url.URL) (string, bool) {
	if u.RawPath != "" || u.Path == "" || path.Clean(u.Path) != u.Path {
		return "", false
	}
	return u.Path, true
}

// RequireSession lets public paths and CORS preflights through and redirects
// every other request without a principal to signInPath. Only canonical paths
// can be public; "/signin/" or "/signin/." need a session like any other path.
func RequireSession(sessions PrincipalReader, public *PathMatcher, signInPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isPublic(public, r.URL) {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := sessions.Principal(r)
			if err != nil {
				// HTMX requests follow HX-Redirect instead of a 3xx
				if r.Header.Get("HX-Request") == "true" {
					w.Header().Set("HX-Redirect", signInPath)
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, signInPath, http.StatusSeeOther)
				return
			}

			reportPrincipal(r.Context(), principal)
			ctx := auth.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isPublic(public *PathMatcher, u *url.URL) bool {
	p, ok := canonicalPath(u)
	return ok && public.Match(p)
}
