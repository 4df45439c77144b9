// Package config loads, normalizes, and validates reelforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and resolves speech credentials from the
// environment or an optional dotenv file without mutating the process
// environment. Named presets carry every layout and timing constant a render
// needs; user presets inherit unset fields from the built-in of the same name.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
