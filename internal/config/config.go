package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server        ServerConfig        `mapstructure:"server" validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database" validate:"required"`
	Auth          AuthConfig          `mapstructure:"auth" validate:"required"`
	Mail          MailConfig          `mapstructure:"mail" validate:"required"`
	Notifications NotificationsConfig `mapstructure:"notifications" validate:"required"`
	Events        EventsConfig        `mapstructure:"events"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the sql driver: "pgx" for PostgreSQL, "sqlite" for local development.
	Driver      string `mapstructure:"driver" validate:"required,oneof=pgx sqlite"`
	URL         string `mapstructure:"url" validate:"required"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// AuthConfig contains the settings for operational API tokens.
type AuthConfig struct {
	JWTSecret               string `mapstructure:"jwt_secret" validate:"required,min=32"`
	OpsTokenLifetimeMinutes int    `mapstructure:"ops_token_lifetime_minutes" validate:"required,gt=0"`
}

// MailConfig contains the outbound email settings.
type MailConfig struct {
	// Driver is "smtp" for real delivery or "log" to only log rendered messages.
	Driver        string  `mapstructure:"driver" validate:"required,oneof=smtp log"`
	SMTPHost      string  `mapstructure:"smtp_host" validate:"required_if=Driver smtp"`
	SMTPPort      int     `mapstructure:"smtp_port" validate:"required_if=Driver smtp,lte=65535"`
	SMTPUsername  string  `mapstructure:"smtp_username"`
	SMTPPassword  string  `mapstructure:"smtp_password"`
	FromAddress   string  `mapstructure:"from_address" validate:"required,email"`
	FromName      string  `mapstructure:"from_name" validate:"required"`
	AppURL        string  `mapstructure:"app_url" validate:"required,url"`
	RatePerSecond float64 `mapstructure:"rate_per_second" validate:"gte=0"`
}

// NotificationsConfig controls the reminder scan and the daily digest.
type NotificationsConfig struct {
	// ScanInterval must stay well below the one hour window so every task is seen
	// at least once while its flag is still false.
	ScanInterval time.Duration `mapstructure:"scan_interval" validate:"required,gte=1s,lt=1h"`
	DigestSpec   string        `mapstructure:"digest_spec" validate:"required"`
	Timezone     string        `mapstructure:"timezone" validate:"required"`
	SendTimeout  time.Duration `mapstructure:"send_timeout" validate:"required"`
	MaxAttempts  int           `mapstructure:"max_attempts" validate:"required,gt=0"`
}

// EventsConfig configures publishing of reminder events. NATSURL is optional.
type EventsConfig struct {
	NATSURL string `mapstructure:"nats_url" validate:"omitempty,url"`
	Subject string `mapstructure:"subject" validate:"required_with=NATSURL"`
}
