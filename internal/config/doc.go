// Package config loads and validates the clippub configuration file.
//
// Configuration lives in a TOML file (default ~/.config/clippub/config.toml)
// and is normalized on load: tilde paths are expanded, relative paths are made
// absolute, and defaults are applied for anything the file omits.
package config
