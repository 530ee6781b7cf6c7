package application

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/envconfig/internal/config"
	"github.com/eugenenazirov/envconfig/internal/profile"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	cfg.Env = "pro"

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if got := app.Config().Env(); got != "PRO" {
		t.Fatalf("expected env PRO, got %s", got)
	}
	if app.Config().AppID() != config.AppID {
		t.Fatalf("expected appId %d, got %d", config.AppID, app.Config().AppID())
	}
	if app.server == nil || app.router == nil {
		t.Fatalf("expected server and router to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
}

func TestNewServesResolvedConfig(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.Env = "pro"

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	app.Server().Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["env"] != "PRO" || body["appId"] != float64(config.AppID) {
		t.Fatalf("unexpected config served: %v", body)
	}
	if _, ok := body["apiBaseUrl"]; !ok {
		t.Fatalf("expected PRO profile fields, got %v", body)
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestNewStrictModeRejectsUnknownEnvironment(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.Env = "staging"
	cfg.StrictEnv = true

	if _, err := New(cfg, zaptest.NewLogger(t)); !errors.Is(err, config.ErrUnknownEnvironment) {
		t.Fatalf("expected ErrUnknownEnvironment, got %v", err)
	}

	cfg.StrictEnv = false
	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("expected silent degrade without strict mode, got %v", err)
	}
	if app.Config().Profiled() {
		t.Fatalf("expected no profile for unknown environment")
	}
}

func TestResolveFromProfilesDir(t *testing.T) {
	dir := t.TempDir()
	for _, source := range []string{"dev", "fat", "uat", "prod"} {
		content := []byte("source: " + source + "\n")
		if err := os.WriteFile(filepath.Join(dir, source+".yaml"), content, 0o600); err != nil {
			t.Fatalf("write profile: %v", err)
		}
	}

	cfg := baseTestConfig(":0")
	cfg.Env = "fws"
	cfg.ProfilesDir = dir

	resolved, err := Resolve(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if v, _ := resolved.Get("source"); v != "fat" {
		t.Fatalf("expected fat profile from directory, got %v", v)
	}
}

func TestLoadRegistryErrors(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing directory")
	}

	file := filepath.Join(t.TempDir(), "dev.yaml")
	if err := os.WriteFile(file, []byte("a: 1\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(file); err == nil {
		t.Fatalf("expected error when profiles dir is a file")
	}

	if _, err := LoadRegistry(t.TempDir()); !errors.Is(err, profile.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound for empty directory, got %v", err)
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		LogLevel:             "info",
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}
