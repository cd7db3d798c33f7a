package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string `mapstructure:"PORT"`
	GinMode     string `mapstructure:"GIN_MODE"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	PostgresURL string `mapstructure:"POSTGRES_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	ClientURL   string `mapstructure:"CLIENT_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	SweepCron            string        `mapstructure:"SWEEP_CRON"`
	UsageSyncCron        string        `mapstructure:"USAGE_SYNC_CRON"`
	SweepTimeout         time.Duration `mapstructure:"SWEEP_TIMEOUT"`
	PlanCacheTTL         time.Duration `mapstructure:"PLAN_CACHE_TTL"`
	DefaultResourceLimit int64         `mapstructure:"DEFAULT_RESOURCE_LIMIT"`
	SeedPlans            bool          `mapstructure:"SEED_PLANS"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
	AppName      string `mapstructure:"APP_NAME"`
	AppBaseURL   string `mapstructure:"APP_BASE_URL"`
}

var keys = []string{
	"PORT", "GIN_MODE", "LOG_LEVEL", "POSTGRES_URL", "JWT_SECRET", "CLIENT_URL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"SWEEP_CRON", "USAGE_SYNC_CRON", "SWEEP_TIMEOUT", "PLAN_CACHE_TTL", "DEFAULT_RESOURCE_LIMIT", "SEED_PLANS",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM", "APP_NAME", "APP_BASE_URL",
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_DB", 0)
	// robfig/cron with seconds field
	v.SetDefault("SWEEP_CRON", "0 0 2 * * *")
	v.SetDefault("USAGE_SYNC_CRON", "0 */30 * * * *")
	v.SetDefault("SWEEP_TIMEOUT", 5*time.Minute)
	v.SetDefault("PLAN_CACHE_TTL", 10*time.Minute)
	v.SetDefault("DEFAULT_RESOURCE_LIMIT", 100)
	v.SetDefault("SEED_PLANS", true)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("APP_NAME", "Masareefy")
	v.SetDefault("APP_BASE_URL", "http://localhost:5173")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if cfg.PostgresURL == "" {
		return nil, errors.New("POSTGRES_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.SweepTimeout <= 0 {
		return nil, errors.New("SWEEP_TIMEOUT must be positive")
	}
	if cfg.DefaultResourceLimit < 0 {
		return nil, errors.New("DEFAULT_RESOURCE_LIMIT must not be negative")
	}

	return &cfg, nil
}

func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}
