package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. LOANFLOW_HTTP_ADDR.
const EnvPrefix = "LOANFLOW"

// Load reads .env (if present), config.yaml from the usual locations and
// environment overrides, then applies defaults and validates the result.
func Load() (*Config, error) {
	loadEnvFile(".env", "../.env", "../../.env")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper decodes an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "loanflow")
	v.SetDefault("app.environment", EnvDevelopment)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.login_delay", time.Second)
	v.SetDefault("data.provider", ProviderFixture)
	v.SetDefault("data.fetch_delay", 500*time.Millisecond)
	v.SetDefault("data.action_delay", time.Second)
	v.SetDefault("database.postgres.dsn", "")
	v.SetDefault("database.postgres.migrate", true)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session_ttl", 12*time.Hour)
	v.SetDefault("nats.url", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// devSecret signs tokens when no secret is configured in development.
const devSecret = "loanflow-dev-secret"

func validate(cfg *Config) error {
	if cfg.Auth.JWTSecret == "" {
		if cfg.App.Environment != EnvDevelopment {
			return errors.New("auth.jwt_secret is required outside development")
		}
		cfg.Auth.JWTSecret = devSecret
	}

	switch cfg.Data.Provider {
	case ProviderFixture:
	case ProviderPostgres:
		if cfg.Database.Postgres.DSN == "" {
			return errors.New("database.postgres.dsn is required for the postgres provider")
		}
	default:
		return fmt.Errorf("unknown data.provider %q", cfg.Data.Provider)
	}

	if cfg.Data.FetchDelay < 0 || cfg.Data.ActionDelay < 0 || cfg.Auth.LoginDelay < 0 {
		return errors.New("delays must not be negative")
	}
	return nil
}
