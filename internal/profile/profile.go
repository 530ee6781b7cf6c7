package profile

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

var (
	// ErrProfileNotFound is returned when a profile source file is missing.
	ErrProfileNotFound = errors.New("profile source not found")
	// ErrInvalidProfile is returned when a profile source cannot be parsed.
	ErrInvalidProfile = errors.New("profile source is not a valid YAML mapping")
)

//go:embed profiles/*.yaml
var embedded embed.FS

// Profile holds the environment specific configuration values.
type Profile map[string]any

// Clone returns a deep copy of p so callers cannot mutate registry state.
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case Profile:
		return cloneMap(typed)
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, inner := range typed {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, inner := range m {
		out[k] = cloneValue(inner)
	}
	return out
}

// checkKeys rejects nested mappings whose keys are not strings; they cannot
// be served as JSON.
func checkKeys(path string, v any) error {
	switch typed := v.(type) {
	case map[string]any:
		for k, inner := range typed {
			if err := checkKeys(path+"."+k, inner); err != nil {
				return err
			}
		}
	case map[any]any:
		return fmt.Errorf("%s: mapping keys must be strings", path)
	case []any:
		for i, inner := range typed {
			if err := checkKeys(fmt.Sprintf("%s[%d]", path, i), inner); err != nil {
				return err
			}
		}
	}
	return nil
}

// Registry maps environment tokens to their parsed profiles.
type Registry struct {
	sources map[string]Profile
}

// NewRegistry builds a registry from the profiles compiled into the binary.
func NewRegistry() (*Registry, error) {
	sub, err := fs.Sub(embedded, "profiles")
	if err != nil {
		return nil, fmt.Errorf("open embedded profiles: %w", err)
	}
	return LoadRegistry(sub)
}

// LoadRegistry parses <source>.yaml (or .yml) for every profile source found in fsys.
func LoadRegistry(fsys fs.FS) (*Registry, error) {
	reg := &Registry{sources: make(map[string]Profile, 4)}
	for _, env := range environments {
		source, _ := env.Source()
		if _, done := reg.sources[source]; done {
			continue
		}
		p, err := readProfile(fsys, source)
		if err != nil {
			return nil, err
		}
		reg.sources[source] = p
	}
	return reg, nil
}

// Lookup returns a copy of the profile for env. Unsupported tokens yield false.
func (r *Registry) Lookup(env Environment) (Profile, bool) {
	source, ok := env.Source()
	if !ok {
		return nil, false
	}
	p, ok := r.sources[source]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func readProfile(fsys fs.FS, source string) (Profile, error) {
	var (
		data []byte
		err  error
	)
	for _, ext := range []string{".yaml", ".yml"} {
		data, err = fs.ReadFile(fsys, source+ext)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read profile %q: %w", source, err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, source)
	}

	// Decoding into a plain map keeps nested mappings as map[string]any
	// rather than the named Profile type.
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProfile, source, err)
	}
	for k, v := range raw {
		if err := checkKeys(k, v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProfile, source, err)
		}
	}
	return Profile(raw), nil
}
