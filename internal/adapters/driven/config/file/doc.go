// Package file provides the TOML-based configuration store.
// Settings live in config.toml inside the launchdeck config directory
// and every write replaces the file atomically.
package file
