// Package application provides application initialization and dependency wiring.
// It loads the profile registry, resolves the configuration exactly once and
// builds the handler, router and HTTP server around that immutable value,
// keeping the main package focused on CLI parsing and orchestration.
package application
