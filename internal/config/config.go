package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Web     WebConfig     `yaml:"web"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port            int            `yaml:"port" env:"SIGNIN_PORT"`
	Host            string         `yaml:"host"`
	BaseURL         string         `yaml:"base_url" env:"BASE_URL"` // Optional: public URL when behind a proxy
	ReadTimeout     time.Duration  `yaml:"read_timeout"`
	WriteTimeout    time.Duration  `yaml:"write_timeout"`
	IdleTimeout     time.Duration  `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration  `yaml:"shutdown_timeout"`
	Security        SecurityConfig `yaml:"security"`
}

// SecurityConfig contains security-related settings
type SecurityConfig struct {
	MaxRequestBytes int64                 `yaml:"max_request_bytes"`
	Headers         SecurityHeadersConfig `yaml:"headers"`
}

// SecurityHeadersConfig contains HTTP security header settings
type SecurityHeadersConfig struct {
	XFrameOptions           string `yaml:"x_frame_options"`
	XContentTypeOptions     string `yaml:"x_content_type_options"`
	ReferrerPolicy          string `yaml:"referrer_policy"`
	ContentSecurityPolicy   string `yaml:"content_security_policy"`
	StrictTransportSecurity string `yaml:"strict_transport_security"`
}

// SessionConfig contains the shared cookie session settings
type SessionConfig struct {
	Secret         string `yaml:"secret" env:"SESSION_SECRET"`
	CookieName     string `yaml:"cookie_name"`
	MaxAge         int    `yaml:"max_age"`
	CookieSecure   string `yaml:"cookie_secure"`   // "auto", "true", "false"
	CookieSameSite string `yaml:"cookie_samesite"` // "strict", "lax", "none"
}

// WebConfig controls static assets and which paths skip the session check
type WebConfig struct {
	StaticDir      string   `yaml:"static_dir" env:"SIGNIN_STATIC_DIR"`
	PublicPaths    []string `yaml:"public_paths"`
	PublicPrefixes []string `yaml:"public_prefixes"`
	MetricsPath    string   `yaml:"metrics_path"`
}

// LogConfig selects log verbosity and output format
type LogConfig struct {
	Level  string `yaml:"level" env:"SIGNIN_LOG_LEVEL"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the configuration used when no file overrides a setting
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "localhost",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Security: SecurityConfig{
				MaxRequestBytes: 1 << 20,
				Headers: SecurityHeadersConfig{
					XFrameOptions:           "DENY",
					XContentTypeOptions:     "nosniff",
					ReferrerPolicy:          "strict-origin-when-cross-origin",
					ContentSecurityPolicy:   "default-src 'self'",
					StrictTransportSecurity: "max-age=31536000; includeSubDomains",
				},
			},
		},
		Session: SessionConfig{
			CookieName:     "loudsight-session",
			MaxAge:         7 * 24 * 60 * 60,
			CookieSecure:   "auto",
			CookieSameSite: "lax",
		},
		Web: WebConfig{
			PublicPaths: []string{
				"/signin",
				"/signout",
				"/signup",
				"/healthz",
				"/metrics",
				"/favicon.ico",
				"/static/**",
			},
			MetricsPath: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from path on top of the defaults.
// An empty path skips the file. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the config
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set
func (c *Config) Validate() error {
	// Session validation
	if c.Session.Secret == "" || strings.Contains(c.Session.Secret, "${") {
		return errors.New("session.secret is required (set SESSION_SECRET environment variable)")
	}
	if len(c.Session.Secret) < 32 {
		return errors.New("session.secret must be at least 32 characters")
	}
	if c.Session.CookieName == "" {
		return errors.New("session.cookie_name is required")
	}
	switch strings.ToLower(c.Session.CookieSecure) {
	case "auto", "true", "false":
	default:
		return fmt.Errorf("session.cookie_secure must be one of auto, true, false (got %q)", c.Session.CookieSecure)
	}
	switch strings.ToLower(c.Session.CookieSameSite) {
	case "strict", "lax", "none":
	default:
		return fmt.Errorf("session.cookie_samesite must be one of strict, lax, none (got %q)", c.Session.CookieSameSite)
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	if c.Server.Security.MaxRequestBytes < 1 {
		return errors.New("server.security.max_request_bytes must be at least 1")
	}

	// Web validation
	for _, p := range c.Web.PublicPaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("web.public_paths entry %q must start with /", p)
		}
	}
	if !strings.HasPrefix(c.Web.MetricsPath, "/") {
		return errors.New("web.metrics_path must start with /")
	}

	// Log validation
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level is invalid: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}

	return nil
}

// HandlerTimeout bounds how long a request handler may run. It ends before
// write_timeout so a slow handler gets a 504 instead of a dropped connection.
// A zero write_timeout means no server limit and falls back to one minute.
func (c *Config) HandlerTimeout() time.Duration {
	if c.Server.WriteTimeout <= 0 {
		return time.Minute
	}
	return c.Server.WriteTimeout * 9 / 10
}

// GetAddr returns the full server address (host:port)
func (c *Config) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetBaseURL returns the public base URL.
// Uses base_url if set, otherwise constructs from host:port
func (c *Config) GetBaseURL() string {
	if c.Server.BaseURL != "" {
		return c.Server.BaseURL
	}
	return fmt.Sprintf("http://%s", c.GetAddr())
}

// IsHTTPS returns true if the base URL uses HTTPS
func (c *Config) IsHTTPS() bool {
	return strings.HasPrefix(strings.ToLower(c.GetBaseURL()), "https://")
}

// CookieSecure resolves cookie_secure; "auto" follows the base URL scheme
func (c *Config) CookieSecure() bool {
	switch strings.ToLower(c.Session.CookieSecure) {
	case "true":
		return true
	case "false":
		return false
	default:
		return c.IsHTTPS()
	}
}

// CookieSameSite maps cookie_samesite onto http.SameSite
func (c *Config) CookieSameSite() http.SameSite {
	switch strings.ToLower(c.Session.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// PublicPatterns expands public_paths under every public prefix.
// Each pattern is "/" + prefix + path with doubled slashes collapsed; the
// unprefixed paths come last and duplicates are dropped.
func (c *Config) PublicPatterns() []string {
	prefixes := append(slices.Clone(c.Web.PublicPrefixes), "")

	var patterns []string
	for _, prefix := range prefixes {
		for _, p := range c.Web.PublicPaths {
			pattern := strings.ReplaceAll("/"+prefix+p, "//", "/")
			if !slices.Contains(patterns, pattern) {
				patterns = append(patterns, pattern)
			}
		}
	}

	if c.Web.MetricsPath != "" && !slices.Contains(patterns, c.Web.MetricsPath) {
		patterns = append(patterns, c.Web.MetricsPath)
	}

	return patterns
}
