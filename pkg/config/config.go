package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	MySQL        MySQLConfig        `yaml:"mysql"`
	Redis        RedisConfig        `yaml:"redis"`
	Queue        QueueConfig        `yaml:"queue"`
	Assignment   AssignmentConfig   `yaml:"assignment"`
	Logger       LoggerConfig       `yaml:"logger"`
	Notification NotificationConfig `yaml:"notification"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port   int    `yaml:"port"`
	Mode   string `yaml:"mode"`    // debug, release
	APIKey string `yaml:"api_key"` // API key for API authentication (optional, if empty, auth is disabled)
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// QueueConfig asynq queue configuration
type QueueConfig struct {
	Enabled     bool `yaml:"enabled"`      // queue-based invocation strategy on/off
	Concurrency int  `yaml:"concurrency"`  // queue processing concurrency
	TaskTimeout int  `yaml:"task_timeout"` // task timeout (seconds)
}

// AssignmentConfig auto-assignment engine configuration
type AssignmentConfig struct {
	BatchSize           int `yaml:"batch_size"`            // max queue items per batch run
	MaxRetries          int `yaml:"max_retries"`           // default max retries for new queue items
	RetryBackoffMinutes int `yaml:"retry_backoff_minutes"` // delay before a failed item is re-armed
	BatchInterval       int `yaml:"batch_interval"`        // scheduled batch run interval (seconds)
	TopCandidates       int `yaml:"top_candidates"`        // candidate snapshots kept per audit entry
	RetentionDays       int `yaml:"retention_days"`        // terminal queue items / audit logs retention
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// NotificationConfig fallback notification configuration
type NotificationConfig struct {
	ManagerWebhookURL string `yaml:"manager_webhook_url"`
}

// Defaults applied when the config file omits or misconfigures a value.
const (
	DefaultBatchSize           = 50
	DefaultMaxRetries          = 3
	DefaultRetryBackoffMinutes = 15
	DefaultBatchInterval       = 60
	DefaultTopCandidates       = 5
	DefaultRetentionDays       = 30
)

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	validateAndApplyDefaults(&cfg)

	GlobalConfig = &cfg
	return nil
}

// validateAndApplyDefaults replaces invalid assignment settings with safe
// defaults so a bad config file degrades instead of breaking batch runs.
func validateAndApplyDefaults(cfg *Config) {
	if cfg.Assignment.BatchSize <= 0 {
		cfg.Assignment.BatchSize = DefaultBatchSize
	}
	if cfg.Assignment.MaxRetries <= 0 {
		cfg.Assignment.MaxRetries = DefaultMaxRetries
	}
	if cfg.Assignment.RetryBackoffMinutes <= 0 {
		cfg.Assignment.RetryBackoffMinutes = DefaultRetryBackoffMinutes
	}
	if cfg.Assignment.BatchInterval <= 0 {
		cfg.Assignment.BatchInterval = DefaultBatchInterval
	}
	if cfg.Assignment.TopCandidates <= 0 {
		cfg.Assignment.TopCandidates = DefaultTopCandidates
	}
	if cfg.Assignment.RetentionDays <= 0 {
		cfg.Assignment.RetentionDays = DefaultRetentionDays
	}
}

// RetryBackoff returns the configured backoff as a duration.
func (c AssignmentConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMinutes) * time.Minute
}
