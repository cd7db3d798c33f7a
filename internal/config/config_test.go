package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/masareefy")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.SweepTimeout)
	assert.Equal(t, int64(100), cfg.DefaultResourceLimit)
	assert.Equal(t, "0 0 2 * * *", cfg.SweepCron)
	assert.True(t, cfg.SeedPlans)
	assert.False(t, cfg.MailEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/masareefy")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SWEEP_TIMEOUT", "90s")
	t.Setenv("DEFAULT_RESOURCE_LIMIT", "25")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "billing@example.com")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.SweepTimeout)
	assert.Equal(t, int64(25), cfg.DefaultResourceLimit)
	assert.True(t, cfg.MailEnabled())
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := load(viper.New())
	assert.EqualError(t, err, "POSTGRES_URL is required")

	t.Setenv("POSTGRES_URL", "postgres://localhost/masareefy")
	t.Setenv("JWT_SECRET", "")
	_, err = load(viper.New())
	assert.EqualError(t, err, "JWT_SECRET is required")
}
