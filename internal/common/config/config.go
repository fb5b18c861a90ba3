package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Concrnt       ConcrntConfig       `mapstructure:"concrnt"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Notifications NotificationConfig  `mapstructure:"notifications"`
	Archive       ArchiveConfig       `mapstructure:"archive"`
	History       HistoryConfig       `mapstructure:"history"`
	Server        ServerConfig        `mapstructure:"server"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ConcrntConfig holds settings for the upstream Concrnt protocol layer.
type ConcrntConfig struct {
	GatewayURL     string `mapstructure:"gateway_url"`
	SubscriberCCID string `mapstructure:"subscriber_ccid"`
	TimelineID     string `mapstructure:"timeline_id"`
	// Query restricts the notification timeline read to association schemas.
	Query          []string `mapstructure:"query"`
	BatchSize      int      `mapstructure:"batch_size"`
	RequestTimeout int      `mapstructure:"request_timeout"` // milliseconds
	// RealtimeChannel is the Redis pub/sub channel the protocol bridge
	// publishes realtime association events on.
	RealtimeChannel string `mapstructure:"realtime_channel"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NotificationConfig holds settings for announcement delivery.
type NotificationConfig struct {
	ProfileSemanticID string `mapstructure:"profile_semantic_id"`
	SoundEnabled      bool   `mapstructure:"sound_enabled"`

	Email EmailSinkConfig `mapstructure:"email"`
	Push  PushSinkConfig  `mapstructure:"push"`
}

type EmailSinkConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AWSRegion string `mapstructure:"aws_region"`
	FromEmail string `mapstructure:"from_email"`
	ToEmail   string `mapstructure:"to_email"`
}

type PushSinkConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AWSRegion string `mapstructure:"aws_region"`
	TopicARN  string `mapstructure:"topic_arn"`
}

// ArchiveConfig holds settings for the Elasticsearch group archive.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

// HistoryConfig holds settings for the announced-notification history.
type HistoryConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
