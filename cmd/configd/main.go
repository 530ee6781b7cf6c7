package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/envconfig/internal/application"
	"github.com/eugenenazirov/envconfig/internal/config"
	"github.com/eugenenazirov/envconfig/internal/logging"
)

var signalNotify = signal.Notify

const (
	serveCommand = "serve"
	showCommand  = "show"
)

type cliFlags struct {
	configFile     *string
	manifestFile   *string
	env            *string
	profilesDir    *string
	strictEnv      *bool
	strictEnvSet   bool
	logLevel       *string
	port           *string
	rateLimitRPS   *float64
	rateLimitBurst *int
}

// newApp declares the command line. The returned flags are filled in by Parse.
func newApp() (*kingpin.Application, *cliFlags) {
	app := kingpin.New("configd", "Environment configuration resolver - selects a profile by environment token and serves the merged configuration")
	flags := &cliFlags{}
	flags.configFile = app.Flag("config", "Path to YAML configuration file").String()
	flags.manifestFile = app.Flag("manifest", "Path to package manifest carrying config.env").String()
	flags.env = app.Flag("env", "Environment token (DEV, FAT, FWS, UAT, PRD, PRO, PROD)").String()
	flags.profilesDir = app.Flag("profiles-dir", "Directory of <profile>.yaml files replacing the embedded profiles").String()
	flags.strictEnv = app.Flag("strict-env", "Fail on unsupported environment tokens instead of degrading (--no-strict-env forces degrading)").
		IsSetByUser(&flags.strictEnvSet).Bool()
	flags.logLevel = app.Flag("log-level", "Log level (debug, info, warn, error)").String()

	serveCmd := app.Command(serveCommand, "Serve the resolved configuration over HTTP").Default()
	flags.port = serveCmd.Flag("port", "HTTP port exposed by the service").String()
	flags.rateLimitRPS = serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	flags.rateLimitBurst = serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	app.Command(showCommand, "Print the resolved configuration as JSON and exit")

	return app, flags
}

func main() {
	kingpinApp, flags := newApp()
	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	cfg, err := config.Load(flags.overrides())
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case showCommand:
		resolved, err := application.Resolve(cfg, logger)
		if err != nil {
			logger.Fatal("failed to resolve configuration", zap.Error(err))
		}
		if err := printResolved(os.Stdout, resolved); err != nil {
			logger.Fatal("failed to print configuration", zap.Error(err))
		}
	case serveCommand:
		app, err := application.New(cfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize application", zap.Error(err))
		}

		if err := app.Start(); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}

		shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	}
}

// overrides converts parsed flags into config overrides. Flags left at their
// zero or sentinel value, or not given at all, do not override lower-precedence sources.
func (f cliFlags) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile:   *f.configFile,
		ManifestFile: *f.manifestFile,
	}

	if *f.env != "" {
		overrides.Env = f.env
	}
	if *f.profilesDir != "" {
		overrides.ProfilesDir = f.profilesDir
	}
	if f.strictEnvSet {
		overrides.StrictEnv = f.strictEnv
	}
	if *f.logLevel != "" {
		overrides.LogLevel = f.logLevel
	}
	if f.port != nil && *f.port != "" {
		overrides.Port = f.port
	}
	if f.rateLimitRPS != nil && *f.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = f.rateLimitRPS
	}
	if f.rateLimitBurst != nil && *f.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = f.rateLimitBurst
	}

	return overrides
}

func printResolved(w io.Writer, resolved config.Resolved) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resolved)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
