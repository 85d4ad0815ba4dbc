package models

import (
	"fmt"
	"net/url"
	"strings"
)

// AuthorizePathPrefix is the path every provider link targets on the authorization server.
const AuthorizePathPrefix = "/oauth2/authorize/"

// ProviderLink is a federated identity entry point rendered on the sign-in page
type ProviderLink struct {
	Provider string // Provider slug in the authorization path (e.g. "linkedin")
	Class    string // CSS class the stylesheet keys the button on (e.g. "linked-in")
	Label    string // Visible button text
	Target   string // Authorization URL the anchor points to
	Icon     Icon   // Inline SVG drawn before the label
}

// Icon describes a 16x16 inline SVG icon
type Icon struct {
	Class string
	Paths []string
}

// AuthorizeTarget builds the authorization URL for provider with redirectURI
// appended verbatim, the form the authorization server expects.
func AuthorizeTarget(provider, redirectURI string) string {
	return AuthorizePathPrefix + provider + "?redirect_uri=" + redirectURI
}

// Validate checks that the link has a label and a well-formed authorization target
func (p ProviderLink) Validate() error {
	if strings.TrimSpace(p.Label) == "" {
		return fmt.Errorf("provider link label is required")
	}
	if strings.TrimSpace(p.Class) == "" || strings.ContainsAny(p.Class, " \t\n") {
		return fmt.Errorf("provider link %q: class must be a single CSS class name", p.Label)
	}
	if p.Target == "" {
		return fmt.Errorf("provider link %q: target is required", p.Label)
	}

	u, err := url.Parse(p.Target)
	if err != nil {
		return fmt.Errorf("provider link %q: invalid target: %w", p.Label, err)
	}
	if u.IsAbs() || u.Host != "" {
		return fmt.Errorf("provider link %q: target must be a relative path", p.Label)
	}

	slug, ok := strings.CutPrefix(u.Path, AuthorizePathPrefix)
	if !ok || slug == "" || strings.Contains(slug, "/") {
		return fmt.Errorf("provider link %q: target path must be %s{provider}", p.Label, AuthorizePathPrefix)
	}

	redirect := u.Query().Get("redirect_uri")
	if redirect == "" {
		return fmt.Errorf("provider link %q: redirect_uri is required", p.Label)
	}
	ru, err := url.Parse(redirect)
	if err != nil {
		return fmt.Errorf("provider link %q: invalid redirect_uri: %w", p.Label, err)
	}
	if (ru.Scheme != "http" && ru.Scheme != "https") || ru.Host == "" {
		return fmt.Errorf("provider link %q: redirect_uri must be an absolute http(s) URL", p.Label)
	}

	return nil
}
