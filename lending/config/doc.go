// Package config loads the configuration of lendingd: defaults, then an optional YAML file,
// then LENDING_* environment variables, then validation.
//
// It also builds the database pools and the OpenTelemetry tracer provider from the loaded values.
package config
