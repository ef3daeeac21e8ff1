// Package config loads, normalizes, and validates bibdup configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI and dedup engine need: decision thresholds, per-identifier strategy
// scores, search bounds, and deletion budgets. Out-of-range values fall back
// to defaults during normalization rather than failing the load.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
