package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	// Optional .env for local development; system env wins otherwise.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_HOST.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "concrnt-notifier"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Concrnt.BatchSize <= 0 {
		cfg.Concrnt.BatchSize = 16
	}
	if cfg.Concrnt.RequestTimeout <= 0 {
		cfg.Concrnt.RequestTimeout = 10000
	}
	if cfg.Concrnt.RealtimeChannel == "" {
		cfg.Concrnt.RealtimeChannel = "concrnt:realtime"
	}
	if len(cfg.Concrnt.Query) == 0 {
		cfg.Concrnt.Query = []string{"association"}
	}
	if cfg.Notifications.ProfileSemanticID == "" {
		cfg.Notifications.ProfileSemanticID = "world.concrnt.p"
	}
	if cfg.Database.Postgres.MaxConnections <= 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle <= 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Archive.Index == "" {
		cfg.Archive.Index = "notification-groups"
	}
	if cfg.History.RetentionDays <= 0 {
		cfg.History.RetentionDays = 30
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":9090"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Concrnt.GatewayURL == "" {
		return fmt.Errorf("concrnt.gateway_url is required")
	}
	if cfg.Concrnt.SubscriberCCID == "" {
		return fmt.Errorf("concrnt.subscriber_ccid is required")
	}
	if cfg.Concrnt.TimelineID == "" {
		return fmt.Errorf("concrnt.timeline_id is required")
	}
	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.FromEmail == "" {
		return fmt.Errorf("notifications.email.from_email is required when email delivery is enabled")
	}
	if cfg.Notifications.Push.Enabled && cfg.Notifications.Push.TopicARN == "" {
		return fmt.Errorf("notifications.push.topic_arn is required when push delivery is enabled")
	}
	return nil
}
