package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"MJ_APP_NAME",
	"MJ_APP_ENV",
	"MJ_APP_PORT",
	"MJ_DATABASE_HOST",
	"MJ_DATABASE_PORT",
	"MJ_DATABASE_USER",
	"MJ_DATABASE_PASSWORD",
	"MJ_DATABASE_DBNAME",
	"MJ_DATABASE_SSLMODE",
	"MJ_DATABASE_MAX_OPEN_CONNS",
	"MJ_DATABASE_MAX_IDLE_CONNS",
	"MJ_REDIS_HOST",
	"MJ_LEDGER_LOCK_TIMEOUT",
	"MJ_LEDGER_RETRY_MAX_ATTEMPTS",
	"MJ_LEDGER_RETRY_INITIAL_INTERVAL",
	"MJ_LEDGER_RETRY_MAX_INTERVAL",
	"MJ_LEDGER_IDEMPOTENCY_TTL",
	"MJ_TELEMETRY_SAMPLING_RATIO",
	"MJ_TELEMETRY_DB_LOG_FULL_SQL",
}

// clearEnv unsets every key for the duration of the test; t.Setenv restores the originals.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "mj-shipping-ledger", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "mjshop", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "", cfg.Redis.Addr())
	})

	t.Run("applies ledger defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 5*time.Second, cfg.Ledger.LockTimeout)
		assert.Equal(t, 3, cfg.Ledger.RetryMaxAttempts)
		assert.Equal(t, 50*time.Millisecond, cfg.Ledger.RetryInitialInterval)
		assert.Equal(t, time.Second, cfg.Ledger.RetryMaxInterval)
		assert.Equal(t, 24*time.Hour, cfg.Ledger.IdempotencyTTL)
	})

	t.Run("loads values from environment variables with MJ prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MJ_APP_NAME", "test-app")
		t.Setenv("MJ_APP_ENV", "testing")
		t.Setenv("MJ_APP_PORT", "9000")
		t.Setenv("MJ_DATABASE_HOST", "testdb.local")
		t.Setenv("MJ_DATABASE_PORT", "5433")
		t.Setenv("MJ_DATABASE_USER", "testuser")
		t.Setenv("MJ_DATABASE_PASSWORD", "testpass")
		t.Setenv("MJ_DATABASE_DBNAME", "testdb")
		t.Setenv("MJ_DATABASE_SSLMODE", "require")
		t.Setenv("MJ_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("MJ_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("MJ_REDIS_HOST", "cache.local")
		t.Setenv("MJ_LEDGER_LOCK_TIMEOUT", "2s")
		t.Setenv("MJ_LEDGER_RETRY_MAX_ATTEMPTS", "5")
		t.Setenv("MJ_LEDGER_IDEMPOTENCY_TTL", "1h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
		assert.Equal(t, 2*time.Second, cfg.Ledger.LockTimeout)
		assert.Equal(t, 5, cfg.Ledger.RetryMaxAttempts)
		assert.Equal(t, time.Hour, cfg.Ledger.IdempotencyTTL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MJ_DATABASE_MAX_OPEN_CONNS", "5")
		t.Setenv("MJ_DATABASE_MAX_IDLE_CONNS", "10")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MJ_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be negative")
	})

	t.Run("rejects a retry ceiling below the initial interval", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MJ_LEDGER_RETRY_INITIAL_INTERVAL", "2s")
		t.Setenv("MJ_LEDGER_RETRY_MAX_INTERVAL", "1s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger.retry_max_interval")
	})

	t.Run("rejects a negative lock timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MJ_LEDGER_LOCK_TIMEOUT", "-1s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger.lock_timeout")
	})

	t.Run("rejects sampling ratio outside [0,1]", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MJ_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("MJ_APP_ENV", "production")
		t.Setenv("MJ_DATABASE_PASSWORD", "secure-password")
		t.Setenv("MJ_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MJ_APP_ENV", "production")
		t.Setenv("MJ_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv(t)
		setValidProductionBase(t)
		t.Setenv("MJ_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("forbids full SQL tracing in production", func(t *testing.T) {
		clearEnv(t)
		setValidProductionBase(t)
		t.Setenv("MJ_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv(t)
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDecode_TOMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("MJ_LEDGER_LOCK_TIMEOUT", "750ms")

	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[app]
name = "ledger-staging"

[ledger]
lock_timeout = "3s"
retry_max_attempts = 4

[http]
trusted_proxies = ["10.0.0.0/8"]

[telemetry]
sampling_ratio = 0.1
`)))

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, "ledger-staging", cfg.App.Name)
	assert.Equal(t, "ledger-staging", cfg.Telemetry.ServiceName)
	assert.Equal(t, 750*time.Millisecond, cfg.Ledger.LockTimeout)
	assert.Equal(t, 4, cfg.Ledger.RetryMaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Ledger.RetryInitialInterval)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.HTTP.TrustedProxies)
	assert.InDelta(t, 0.1, cfg.Telemetry.SamplingRatio, 1e-9)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodySize)
	assert.Equal(t, 5*time.Minute, cfg.Ledger.HealthCheckInterval)
	assert.False(t, cfg.App.IsProduction())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
