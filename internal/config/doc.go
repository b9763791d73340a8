// Package config loads, normalizes, and validates easel's TOML
// configuration.
//
// Load resolves the config file (explicit path, ~/.config/easel/config.toml,
// or ./easel.toml), decodes it over built-in defaults, applies EASEL_*
// environment overrides, and expands all path fields. A missing file is not
// an error; defaults plus environment are enough to talk to a local backend.
package config
