// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"farmstand-realtime/internal/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DB_PASSWORD
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

	// Environment overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from wherever the process happens to run (repo root, cmd dir,
// test dirs).
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Expand ${VAR} placeholders left in YAML values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "farmstand-realtime"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Server.WebSocketPath == "" {
		cfg.Server.WebSocketPath = "/ws/notifications"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 20
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Realtime.QueueCap == 0 {
		cfg.Realtime.QueueCap = 100
	}
	if cfg.Realtime.HeartbeatInterval == 0 {
		cfg.Realtime.HeartbeatInterval = 30
	}
	if cfg.Realtime.QueueFlushInterval == 0 {
		cfg.Realtime.QueueFlushInterval = 5
	}
	if cfg.Realtime.ClientTimeout == 0 {
		cfg.Realtime.ClientTimeout = 60
	}
	if cfg.Realtime.SeasonalInterval == 0 {
		cfg.Realtime.SeasonalInterval = 3600
	}
	if cfg.Realtime.SeasonalAudience == "" {
		cfg.Realtime.SeasonalAudience = string(models.RoleFarmer)
	}
	if cfg.Realtime.MessageRate == 0 {
		cfg.Realtime.MessageRate = 10
	}
	if cfg.Realtime.MessageBurst == 0 {
		cfg.Realtime.MessageBurst = 20
	}
	if cfg.Channels.AWSRegion == "" {
		cfg.Channels.AWSRegion = "us-east-1"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if cfg.Channels.FromEmail == "" {
		if val := os.Getenv("NOTIFICATIONS_FROM_EMAIL"); val != "" {
			cfg.Channels.FromEmail = val
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Realtime.QueueCap < 1 {
		return fmt.Errorf("realtime.queue_cap must be positive, got %d", cfg.Realtime.QueueCap)
	}
	if cfg.Realtime.HeartbeatInterval < 1 {
		return fmt.Errorf("realtime.heartbeat_interval must be positive, got %d", cfg.Realtime.HeartbeatInterval)
	}
	if cfg.Realtime.QueueFlushInterval < 1 {
		return fmt.Errorf("realtime.queue_flush_interval must be positive, got %d", cfg.Realtime.QueueFlushInterval)
	}
	if cfg.Realtime.ClientTimeout <= cfg.Realtime.HeartbeatInterval {
		return fmt.Errorf("realtime.client_timeout (%ds) must exceed heartbeat_interval (%ds)",
			cfg.Realtime.ClientTimeout, cfg.Realtime.HeartbeatInterval)
	}
	if !models.ValidRole(cfg.Realtime.SeasonalAudience) {
		return fmt.Errorf("realtime.seasonal_audience must be a known role, got %q", cfg.Realtime.SeasonalAudience)
	}
	if cfg.Channels.EmailEnabled && cfg.Channels.FromEmail == "" {
		return fmt.Errorf("channels.from_email is required when email is enabled")
	}
	return nil
}
