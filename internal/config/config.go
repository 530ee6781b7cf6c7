package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime settings resolved from multiple sources.
// Precedence: CLI flags > YAML config > package manifest > Environment variables > Defaults
type Config struct {
	// Env is the raw environment token; Resolver normalises it.
	Env                  string
	ProfilesDir          string
	StrictEnv            bool
	Port                 string
	LogLevel             string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Env                  string        `yaml:"env"`
	ProfilesDir          string        `yaml:"profiles_dir"`
	StrictEnv            *bool         `yaml:"strict_env"`
	Port                 string        `yaml:"port"`
	LogLevel             string        `yaml:"log_level"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// manifest is the package metadata document, e.g. a package.json.
type manifest struct {
	Config struct {
		Env string `json:"env" yaml:"env"`
	} `json:"config" yaml:"config"`
}

// envConfig lists the settings read from environment variables.
type envConfig struct {
	Env            string   `env:"APP_ENV"`
	Manifest       string   `env:"APP_MANIFEST"`
	ProfilesDir    string   `env:"PROFILES_DIR"`
	StrictEnv      *bool    `env:"STRICT_ENV"`
	Port           string   `env:"PORT"`
	LogLevel       string   `env:"LOG_LEVEL"`
	RateLimitRPS   *float64 `env:"RATE_LIMIT_RPS"`
	RateLimitBurst *int     `env:"RATE_LIMIT_BURST"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	ManifestFile   string
	Env            *string
	ProfilesDir    *string
	StrictEnv      *bool
	Port           *string
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > package manifest > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	envCfg, err := loadEnv()
	if err != nil {
		return Config{}, err
	}
	applyEnvConfig(&cfg, envCfg)

	manifestFile := envCfg.Manifest
	if overrides != nil && overrides.ManifestFile != "" {
		manifestFile = overrides.ManifestFile
	}
	if manifestFile != "" {
		m, err := loadManifest(manifestFile)
		if err != nil {
			return Config{}, fmt.Errorf("load manifest: %w", err)
		}
		if token := strings.TrimSpace(m.Config.Env); token != "" {
			cfg.Env = token
		}
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		LogLevel:             defaultLogLevel,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

func loadEnv() (envConfig, error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return envConfig{}, fmt.Errorf("parse environment variables: %w", err)
	}
	return cfg, nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config, envCfg envConfig) {
	if v := strings.TrimSpace(envCfg.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(envCfg.ProfilesDir); v != "" {
		cfg.ProfilesDir = v
	}
	if envCfg.StrictEnv != nil {
		cfg.StrictEnv = *envCfg.StrictEnv
	}
	if v := strings.TrimSpace(envCfg.Port); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(envCfg.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if envCfg.RateLimitRPS != nil && *envCfg.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *envCfg.RateLimitRPS
	}
	if envCfg.RateLimitBurst != nil && *envCfg.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *envCfg.RateLimitBurst
	}
}

// loadManifest reads the package metadata document at path. .json files are
// decoded as JSON (duplicate keys: last wins, config.env must be a string);
// anything else is decoded as YAML.
func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var m manifest
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
		return &m, nil
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Env != "" {
		cfg.Env = yamlCfg.Env
	}
	if yamlCfg.ProfilesDir != "" {
		cfg.ProfilesDir = yamlCfg.ProfilesDir
	}
	if yamlCfg.StrictEnv != nil {
		cfg.StrictEnv = *yamlCfg.StrictEnv
	}
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(yamlCfg.LogLevel)
	}

	durations := []struct {
		raw    string
		target *time.Duration
		name   string
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod, "shutdown_grace_period"},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout, "read_header_timeout"},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout, "write_timeout"},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout, "idle_timeout"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.target = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Env != nil && *overrides.Env != "" {
		cfg.Env = *overrides.Env
	}
	if overrides.ProfilesDir != nil && *overrides.ProfilesDir != "" {
		cfg.ProfilesDir = *overrides.ProfilesDir
	}
	if overrides.StrictEnv != nil {
		cfg.StrictEnv = *overrides.StrictEnv
	}
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(*overrides.LogLevel)
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// Validate checks the final configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.RateLimitRPS, validation.Min(0.0)),
		validation.Field(&c.RateLimitBurst, validation.Min(0)),
		validation.Field(&c.ShutdownGracePeriod, validation.Min(time.Duration(0))),
	)
}
