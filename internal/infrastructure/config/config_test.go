package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fulfillment-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiration)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Provider.RequestTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Provider.CredentialTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FULFILLMENT_APP_PORT", "9090")
	t.Setenv("FULFILLMENT_DATABASE_HOST", "db.internal")
	t.Setenv("FULFILLMENT_LOG_LEVEL", "debug")
	t.Setenv("FULFILLMENT_JWT_ACCESS_TOKEN_EXPIRATION", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenExpiration)
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Setenv("FULFILLMENT_APP_ENV", "production")

	t.Run("missing jwt secret", func(t *testing.T) {
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("short jwt secret", func(t *testing.T) {
		t.Setenv("FULFILLMENT_JWT_SECRET", "too-short")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "32 characters")
	})

	t.Run("valid production config", func(t *testing.T) {
		t.Setenv("FULFILLMENT_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("FULFILLMENT_DATABASE_PASSWORD", "secret")
		t.Setenv("FULFILLMENT_DATABASE_SSLMODE", "require")
		t.Setenv("FULFILLMENT_PROVIDER_API_KEY", "pk-test")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestLoad_IdleConnsCannotExceedOpenConns(t *testing.T) {
	t.Setenv("FULFILLMENT_DATABASE_MAX_OPEN_CONNS", "5")
	t.Setenv("FULFILLMENT_DATABASE_MAX_IDLE_CONNS", "10")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_idle_conns")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss word",
		DBName:   "fulfillment",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "sslmode=disable")
	// special characters must be escaped
	assert.NotContains(t, dsn, "p@ss word")
}
