// Package profile defines the supported environment tokens and the registry of
// per-environment configuration profiles. Profiles ship embedded in the binary
// and can be replaced by a directory of YAML files at startup.
package profile
