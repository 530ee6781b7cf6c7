// Package config loads runtime settings from multiple sources (YAML files,
// a package manifest, environment variables, CLI flags) with precedence:
// CLI flags > YAML config > package manifest > Environment variables > Defaults.
//
// It also resolves the application configuration: a fixed application
// identifier merged with the profile of the selected environment. The result
// is computed once at startup and passed explicitly to its consumers.
package config
