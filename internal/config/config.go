package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Database      DatabaseConfig     `yaml:"database"`
	Email         EmailConfig        `yaml:"email"`
	JWT           JWTConfig          `yaml:"jwt"`
	Log           LogConfig          `yaml:"log"`
	Intake        IntakeConfig       `yaml:"intake"`
	Collaborators CollaboratorConfig `yaml:"collaborators"`
	Payment       PaymentConfig      `yaml:"payment"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// EmailConfig contains SendGrid settings for status notifications
type EmailConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	Enabled   bool   `yaml:"enabled"`
}

// JWTConfig contains actor token settings
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// IntakeConfig tunes the registration intake pipeline
type IntakeConfig struct {
	QueueDepth         int `yaml:"queue_depth"`          // per-competition queue buffer
	MaxAttempts        int `yaml:"max_attempts"`         // redelivery attempts per request
	DedupWindowMinutes int `yaml:"dedup_window_minutes"` // how long dedup keys are remembered
}

// CollaboratorConfig points at the external competition and user services
type CollaboratorConfig struct {
	CompetitionServiceURL string `yaml:"competition_service_url"`
	UserServiceURL        string `yaml:"user_service_url"`
	ServiceToken          string `yaml:"service_token"`
}

// PaymentConfig selects the payment gateway implementation
type PaymentConfig struct {
	Type string `yaml:"type"` // "mock" or "stripe"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	PromoteWaitingLists  string `yaml:"promote_waiting_lists"`
	SendPaymentReminders string `yaml:"send_payment_reminders"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			c.Database.Port = p
		}
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.APIKey = val
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			c.Server.Port = p
		}
	}

	if val := os.Getenv("COMPETITION_SERVICE_URL"); val != "" {
		c.Collaborators.CompetitionServiceURL = val
	}
	if val := os.Getenv("USER_SERVICE_URL"); val != "" {
		c.Collaborators.UserServiceURL = val
	}
	if val := os.Getenv("SERVICE_TOKEN"); val != "" {
		c.Collaborators.ServiceToken = val
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	if c.Email.Enabled && c.Email.APIKey == "" {
		return fmt.Errorf("SendGrid API key is required when email is enabled")
	}

	if c.Collaborators.CompetitionServiceURL == "" {
		return fmt.Errorf("competition service URL is required")
	}
	if c.Collaborators.UserServiceURL == "" {
		return fmt.Errorf("user service URL is required")
	}

	// Intake defaults
	if c.Intake.QueueDepth == 0 {
		c.Intake.QueueDepth = 64
	}
	if c.Intake.MaxAttempts == 0 {
		c.Intake.MaxAttempts = 3
	}
	if c.Intake.DedupWindowMinutes == 0 {
		c.Intake.DedupWindowMinutes = 5
	}

	// Payment defaults
	if c.Payment.Type == "" {
		c.Payment.Type = "mock"
	}

	// Scheduler defaults
	if c.Scheduler.PromoteWaitingLists == "" {
		c.Scheduler.PromoteWaitingLists = "0 */10 * * * *" // every 10 minutes
	}
	if c.Scheduler.SendPaymentReminders == "" {
		c.Scheduler.SendPaymentReminders = "0 0 9 * * *" // daily at 9 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
