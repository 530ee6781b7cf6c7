package config

import (
	"encoding/json"
	"sort"

	"github.com/eugenenazirov/envconfig/internal/profile"
)

// Resolved is the immutable configuration produced by Resolver.Resolve.
// Accessors return copies; the zero value is empty.
type Resolved struct {
	values   map[string]any
	profiled bool
}

// Env returns the value of the env field.
func (r Resolved) Env() string {
	env, _ := r.values[keyEnv].(string)
	return env
}

// AppID returns the application identifier, which a profile may override.
func (r Resolved) AppID() int64 {
	switch id := r.values[keyAppID].(type) {
	case int:
		return int64(id)
	case int64:
		return id
	case uint64:
		return int64(id)
	case float64:
		return int64(id)
	default:
		return 0
	}
}

// Profiled reports whether an environment profile contributed to r.
func (r Resolved) Profiled() bool {
	return r.profiled
}

// Get returns a copy of the value stored under key.
func (r Resolved) Get(key string) (any, bool) {
	v, ok := r.values[key]
	if !ok {
		return nil, false
	}
	return profile.Profile{key: v}.Clone()[key], true
}

// Keys returns the configuration keys in sorted order.
func (r Resolved) Keys() []string {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a deep copy of the configuration.
func (r Resolved) Map() map[string]any {
	if r.values == nil {
		return map[string]any{}
	}
	return profile.Profile(r.values).Clone()
}

// MarshalJSON encodes the configuration as a flat JSON object.
func (r Resolved) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}
