package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/AntonStoeckl/lending-workflow-go/lending/config"
)

func givenEnv(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func givenConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lendingd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "error in arranging test data")

	return path
}

func givenValidSecret() map[string]string {
	return map[string]string{"LENDING_JWT_SECRET": "0123456789abcdef0123"}
}

func Test_Load_DefaultsNeedOnlyASecret(t *testing.T) {
	// act
	cfg, err := config.Load("", givenEnv(givenValidSecret()))

	// assert
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, config.PostgresAdapterPGX, cfg.Storage.Postgres.Adapter)
	assert.Equal(t, int32(8), cfg.Storage.Postgres.MaxConns)
	assert.Equal(t, 6, cfg.Retry.MaxAttempts)
}

func Test_Load_WithoutSecret_IsInvalid(t *testing.T) {
	_, err := config.Load("", givenEnv(nil))

	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "JWTSecret")
}

func Test_Load_FileThenEnvironment(t *testing.T) {
	// arrange
	path := givenConfigFile(t, `
http:
  address: ":9090"
storage:
  driver: memory
  postgres:
    adapter: sqlx
retry:
  maxAttempts: 3
  baseDelay: 25ms
auth:
  jwtSecret: from-the-file-0123456789
`)
	env := givenEnv(map[string]string{
		"LENDING_RETRY_MAX_ATTEMPTS": "9",
		"LENDING_LOG_LEVEL":          "debug",
	})

	// act
	cfg, err := config.Load(path, env)

	// assert
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, config.StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, config.PostgresAdapterSQLX, cfg.Storage.Postgres.Adapter)
	assert.Equal(t, 9, cfg.Retry.MaxAttempts)
	assert.Equal(t, 25*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "lending_session", cfg.Auth.CookieName)
}

func Test_Load_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), givenEnv(givenValidSecret()))

	assert.ErrorIs(t, err, config.ErrReadingConfigFile)
}

func Test_Load_MalformedFile(t *testing.T) {
	path := givenConfigFile(t, "http: [not, a, map")

	_, err := config.Load(path, givenEnv(givenValidSecret()))

	assert.ErrorIs(t, err, config.ErrParsingConfigFile)
}

func Test_Load_UnparsableEnvironmentValue(t *testing.T) {
	env := givenValidSecret()
	env["LENDING_RETRY_BASE_DELAY"] = "soon"

	_, err := config.Load("", givenEnv(env))

	require.ErrorIs(t, err, config.ErrInvalidEnvValue)
	assert.Contains(t, err.Error(), "LENDING_RETRY_BASE_DELAY")
}

func Test_Validate_RejectsInconsistentSettings(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(cfg *config.Config)
		problem string
	}{
		{
			name:    "unknown adapter",
			mutate:  func(cfg *config.Config) { cfg.Storage.Postgres.Adapter = "odbc" },
			problem: "Adapter",
		},
		{
			name:    "min conns above max conns",
			mutate:  func(cfg *config.Config) { cfg.Storage.Postgres.MinConns = 20 },
			problem: "MinConns",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(cfg *config.Config) { cfg.Storage.Postgres.DSN = "" },
			problem: "DSN",
		},
		{
			name: "replica with sql adapter",
			mutate: func(cfg *config.Config) {
				cfg.Storage.Postgres.Adapter = config.PostgresAdapterSQL
				cfg.Storage.Postgres.ReplicaDSN = "postgres://replica"
			},
			problem: "ReplicaDSN",
		},
		{
			name: "tracing without endpoint",
			mutate: func(cfg *config.Config) {
				cfg.Observability.TracingEnabled = true
				cfg.Observability.OTLPEndpoint = ""
			},
			problem: "OTLPEndpoint",
		},
		{
			name:    "unknown log level",
			mutate:  func(cfg *config.Config) { cfg.Log.Level = "verbose" },
			problem: "Level",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Auth.JWTSecret = "0123456789abcdef0123"
			tc.mutate(&cfg)

			err := cfg.Validate()

			require.ErrorIs(t, err, config.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tc.problem)
		})
	}
}

func Test_LogConfig_SlogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", config.LogConfig{Level: "debug"}.SlogLevel().String())
	assert.Equal(t, "WARN", config.LogConfig{Level: "warn"}.SlogLevel().String())
}

func Test_PGXPoolConfig_CarriesPoolSettings(t *testing.T) {
	cfg := config.Default().Storage.Postgres

	poolConfig, err := cfg.PGXPoolConfig(cfg.DSN)

	require.NoError(t, err)
	assert.Equal(t, int32(8), poolConfig.MaxConns)
	assert.Equal(t, int32(2), poolConfig.MinConns)
	assert.Equal(t, time.Hour, poolConfig.MaxConnLifetime)
	assert.Equal(t, 5*time.Second, poolConfig.ConnConfig.ConnectTimeout)
}

func Test_PGXPoolConfig_InvalidDSN(t *testing.T) {
	_, err := config.Default().Storage.Postgres.PGXPoolConfig("postgres://%zz")

	assert.ErrorIs(t, err, config.ErrConnectingToDatabase)
}

func Test_SetupTelemetry_NothingEnabled(t *testing.T) {
	obs := config.Default().Observability

	telemetry, err := obs.SetupTelemetry(context.Background(), "test")

	require.NoError(t, err)
	assert.Nil(t, telemetry.TracerProvider)
	assert.Nil(t, telemetry.MeterProvider)
	assert.NoError(t, telemetry.Shutdown(context.Background()))
}

func Test_SetupTelemetry_OtelMetricsBackend(t *testing.T) {
	// arrange
	obs := config.Default().Observability
	obs.MetricsBackend = "otel"
	reader := sdkmetric.NewManualReader()

	// act
	telemetry, err := obs.SetupTelemetry(context.Background(), "test", reader)

	// assert
	require.NoError(t, err)
	require.NotNil(t, telemetry.MeterProvider)
	assert.Nil(t, telemetry.TracerProvider)
	assert.NoError(t, telemetry.Shutdown(context.Background()))
}
