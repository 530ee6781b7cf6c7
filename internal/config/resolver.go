package config

import (
	"errors"
	"fmt"

	"dario.cat/mergo"
	"go.uber.org/zap"

	"github.com/eugenenazirov/envconfig/internal/profile"
)

// AppID is the fixed application identifier merged into every configuration.
const AppID = 100008661

const (
	keyEnv   = "env"
	keyAppID = "appId"
)

// ErrUnknownEnvironment is returned in strict mode for unsupported tokens.
var ErrUnknownEnvironment = errors.New("unknown environment")

// ProfileSource provides profiles by environment token.
type ProfileSource interface {
	Lookup(env profile.Environment) (profile.Profile, bool)
}

// ResolverOption configures the behaviour of NewResolver.
type ResolverOption func(*Resolver)

// WithStrict makes Resolve reject unsupported tokens instead of degrading.
func WithStrict(strict bool) ResolverOption {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// WithLogger sets the logger used to report unsupported tokens.
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver merges the fixed application fields with an environment profile.
type Resolver struct {
	profiles ProfileSource
	strict   bool
	logger   *zap.Logger
}

// NewResolver constructs a Resolver backed by the given profiles.
func NewResolver(profiles ProfileSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		profiles: profiles,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the configuration for the raw environment token.
//
// Empty input resolves as DEV. An unsupported token yields a configuration
// carrying only env and appId; in strict mode it is an error instead.
// Profile keys are applied last and win over env and appId.
func (r *Resolver) Resolve(raw string) (Resolved, error) {
	env := profile.Normalize(raw)

	values := map[string]any{
		keyEnv:   env.String(),
		keyAppID: AppID,
	}

	p, ok := r.profiles.Lookup(env)
	if !ok {
		if r.strict {
			return Resolved{}, fmt.Errorf("%w: %q", ErrUnknownEnvironment, env)
		}
		r.logger.Warn("unsupported environment, no profile applied",
			zap.String("env", env.String()),
		)
		return Resolved{values: values}, nil
	}

	if err := mergo.Merge(&values, map[string]any(p), mergo.WithOverride); err != nil {
		return Resolved{}, fmt.Errorf("merge %s profile: %w", env, err)
	}

	return Resolved{values: values, profiled: true}, nil
}
