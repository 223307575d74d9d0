// Package config defines runtime configuration for seointel.
//
// Configuration comes from two places: CLI flags populate the flat Config
// struct, and an optional .seointel YAML file supplies analysis tuning
// (provider credentials and cache TTLs, metric thresholds, unit weights,
// sprint classification rules). Both are passed through the application via
// dependency injection rather than global state.
package config
