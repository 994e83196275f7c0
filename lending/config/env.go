package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const envPrefix = "LENDING_"

type envBinding struct {
	name string
	set  func(cfg *Config, value string) error
}

func str(target func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, value string) error {
		*target(cfg) = value
		return nil
	}
}

func duration(target func(*Config) *time.Duration) func(*Config, string) error {
	return func(cfg *Config, value string) error {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}

		*target(cfg) = d

		return nil
	}
}

func integer(target func(*Config) *int) func(*Config, string) error {
	return func(cfg *Config, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}

		*target(cfg) = n

		return nil
	}
}

func int32Value(target func(*Config) *int32) func(*Config, string) error {
	return func(cfg *Config, value string) error {
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return err
		}

		*target(cfg) = int32(n)

		return nil
	}
}

func float(target func(*Config) *float64) func(*Config, string) error {
	return func(cfg *Config, value string) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}

		*target(cfg) = f

		return nil
	}
}

func boolean(target func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}

		*target(cfg) = b

		return nil
	}
}

var envBindings = []envBinding{
	{"HTTP_ADDRESS", str(func(c *Config) *string { return &c.HTTP.Address })},
	{"HTTP_SHUTDOWN_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.HTTP.ShutdownTimeout })},
	{"LOG_LEVEL", str(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FORMAT", str(func(c *Config) *string { return &c.Log.Format })},
	{"STORAGE_DRIVER", str(func(c *Config) *string { return &c.Storage.Driver })},
	{"POSTGRES_DSN", str(func(c *Config) *string { return &c.Storage.Postgres.DSN })},
	{"POSTGRES_REPLICA_DSN", str(func(c *Config) *string { return &c.Storage.Postgres.ReplicaDSN })},
	{"POSTGRES_ADAPTER", str(func(c *Config) *string { return &c.Storage.Postgres.Adapter })},
	{"POSTGRES_MAX_CONNS", int32Value(func(c *Config) *int32 { return &c.Storage.Postgres.MaxConns })},
	{"POSTGRES_MIN_CONNS", int32Value(func(c *Config) *int32 { return &c.Storage.Postgres.MinConns })},
	{"POSTGRES_AUTO_MIGRATE", boolean(func(c *Config) *bool { return &c.Storage.Postgres.AutoMigrate })},
	{"JWT_SECRET", str(func(c *Config) *string { return &c.Auth.JWTSecret })},
	{"COOKIE_NAME", str(func(c *Config) *string { return &c.Auth.CookieName })},
	{"RATE_LIMIT_RPS", float(func(c *Config) *float64 { return &c.RateLimit.RequestsPerSecond })},
	{"RATE_LIMIT_BURST", integer(func(c *Config) *int { return &c.RateLimit.Burst })},
	{"RETRY_MAX_ATTEMPTS", integer(func(c *Config) *int { return &c.Retry.MaxAttempts })},
	{"RETRY_BASE_DELAY", duration(func(c *Config) *time.Duration { return &c.Retry.BaseDelay })},
	{"METRICS_BACKEND", str(func(c *Config) *string { return &c.Observability.MetricsBackend })},
	{"TRACING_ENABLED", boolean(func(c *Config) *bool { return &c.Observability.TracingEnabled })},
	{"OTLP_ENDPOINT", str(func(c *Config) *string { return &c.Observability.OTLPEndpoint })},
	{"LOG_BRIDGE", boolean(func(c *Config) *bool { return &c.Observability.LogBridge })},
}

func applyEnv(cfg *Config, lookupEnv func(string) (string, bool)) error {
	if lookupEnv == nil {
		return nil
	}

	for _, binding := range envBindings {
		value, ok := lookupEnv(envPrefix + binding.name)
		if !ok {
			continue
		}

		if err := binding.set(cfg, value); err != nil {
			return errors.Join(ErrInvalidEnvValue, fmt.Errorf("%s%s=%q: %w", envPrefix, binding.name, value, err))
		}
	}

	return nil
}
