// Package config handles configuration management for libmerge.
// It layers the embedded defaults, the host-wide /etc/libmerge.toml, the
// operator's config file, LIBMERGE_* environment variables and
// command-line overrides, in that order, using koanf.
package config
