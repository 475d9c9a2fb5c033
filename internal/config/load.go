package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // timezone data for minimal container images

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "TASKMASTER"

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile behaves like Load but reads the given config file instead of
// searching for config.yaml in the working directory.
func LoadFile(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadAuth reads and validates only the auth section, for tools that do not
// need database or mail settings.
func LoadAuth() (*AuthConfig, error) {
	v, err := newViper("")
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg.Auth); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg.Auth, nil
}

// newViper returns a viper instance with defaults, the config file (if any)
// and environment overrides applied.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// Validate runs struct validation plus the checks the tags cannot express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Notifications.Timezone); err != nil {
		return fmt.Errorf("config validation failed: invalid notifications.timezone %q: %w",
			cfg.Notifications.Timezone, err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "pgx")
	v.SetDefault("database.url", "")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.ops_token_lifetime_minutes", 60)

	v.SetDefault("mail.driver", "log")
	v.SetDefault("mail.smtp_host", "")
	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.smtp_username", "")
	v.SetDefault("mail.smtp_password", "")
	v.SetDefault("mail.from_address", "noreply@taskmasterpro.com")
	v.SetDefault("mail.from_name", "TaskMaster Pro")
	v.SetDefault("mail.app_url", "http://localhost:3000")
	v.SetDefault("mail.rate_per_second", 5)

	v.SetDefault("notifications.scan_interval", 5*time.Minute)
	v.SetDefault("notifications.digest_spec", "0 8 * * *")
	v.SetDefault("notifications.timezone", "UTC")
	v.SetDefault("notifications.send_timeout", 15*time.Second)
	v.SetDefault("notifications.max_attempts", 3)

	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.subject", "taskmaster.reminders")
}
