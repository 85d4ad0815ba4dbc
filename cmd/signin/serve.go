package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loudsight/signin/internal/auth"
	"github.com/loudsight/signin/internal/config"
	"github.com/loudsight/signin/internal/observability"
	"github.com/loudsight/signin/internal/version"
	"github.com/loudsight/signin/internal/web"
)

const defaultConfigPath = "./config.yaml"

var configPath string

// serveCmd runs the HTTP server until SIGINT or SIGTERM
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the sign-in HTTP server.

The config file is taken from --config, then CONFIG_PATH, then ./config.yaml.
When none of these exist the built-in defaults and environment are used.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to the YAML config file")
}

// resolveConfigPath picks the config file; an empty result means defaults only
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(resolveConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg.Log, cmd.ErrOrStderr())
	logger.WithField("version", version.GetVersion()).Info("Starting Loudsight sign-in service")

	sessionManager := auth.InitSessions(auth.SessionOptions{
		Secret:     cfg.Session.Secret,
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.MaxAge,
		Secure:     cfg.CookieSecure(),
		SameSite:   cfg.CookieSameSite(),
	})
	logger.WithField("cookie", cfg.Session.CookieName).Info("Session manager initialized")

	metrics := observability.NewDefaultMetrics()
	logger.WithField("public", cfg.PublicPatterns()).Debug("Public path patterns")

	srv := &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      web.NewRouter(cfg, sessionManager, metrics, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on %s", cfg.GetBaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited successfully")
	return nil
}
