package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/envconfig/internal/api"
	"github.com/eugenenazirov/envconfig/internal/config"
	"github.com/eugenenazirov/envconfig/internal/profile"
)

// App encapsulates the resolved configuration and the HTTP server exposing it.
type App struct {
	resolved config.Resolved
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// Resolve loads the profile registry and resolves the configuration once.
func Resolve(cfg config.Config, logger *zap.Logger) (config.Resolved, error) {
	registry, err := LoadRegistry(cfg.ProfilesDir)
	if err != nil {
		return config.Resolved{}, fmt.Errorf("failed to load profiles: %w", err)
	}

	resolver := config.NewResolver(registry,
		config.WithStrict(cfg.StrictEnv),
		config.WithLogger(logger),
	)
	resolved, err := resolver.Resolve(cfg.Env)
	if err != nil {
		return config.Resolved{}, fmt.Errorf("failed to resolve configuration: %w", err)
	}

	logger.Info("configuration resolved",
		zap.String("env", resolved.Env()),
		zap.Int64("app_id", resolved.AppID()),
		zap.Bool("profiled", resolved.Profiled()),
		zap.Int("keys", len(resolved.Keys())),
	)
	return resolved, nil
}

// LoadRegistry returns the embedded profiles, or those found in dir when set.
func LoadRegistry(dir string) (*profile.Registry, error) {
	if dir == "" {
		return profile.NewRegistry()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return profile.LoadRegistry(os.DirFS(dir))
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	resolved, err := Resolve(cfg, logger)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(resolved)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		resolved: resolved,
		router:   router,
		logger:   logger,
		server:   NewServer(cfg, router),
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr), zap.String("env", a.resolved.Env()))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Config returns the configuration resolved at startup.
func (a *App) Config() config.Resolved {
	return a.resolved
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
