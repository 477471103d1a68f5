// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Channels ChannelsConfig `mapstructure:"channels"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	WebSocketPath   string `mapstructure:"websocket_path"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
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

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RealtimeConfig holds the tuning knobs of the fan-out subsystem.
type RealtimeConfig struct {
	QueueCap           int     `mapstructure:"queue_cap"`
	HeartbeatInterval  int     `mapstructure:"heartbeat_interval"`   // seconds
	QueueFlushInterval int     `mapstructure:"queue_flush_interval"` // seconds
	ClientTimeout      int     `mapstructure:"client_timeout"`       // seconds without activity
	SeasonalInterval   int     `mapstructure:"seasonal_interval"`    // seconds
	SeasonalAudience   string  `mapstructure:"seasonal_audience"`    // role receiving seasonal alerts
	MessageRate        float64 `mapstructure:"message_rate"`         // inbound messages per second per connection
	MessageBurst       int     `mapstructure:"message_burst"`
}

func (r RealtimeConfig) Heartbeat() time.Duration {
	return time.Duration(r.HeartbeatInterval) * time.Second
}

func (r RealtimeConfig) QueueFlush() time.Duration {
	return time.Duration(r.QueueFlushInterval) * time.Second
}

func (r RealtimeConfig) Seasonal() time.Duration {
	return time.Duration(r.SeasonalInterval) * time.Second
}

// ChannelsConfig configures the external email/SMS collaborators used for
// offline high-priority notifications.
type ChannelsConfig struct {
	EmailEnabled bool   `mapstructure:"email_enabled"`
	SMSEnabled   bool   `mapstructure:"sms_enabled"`
	FromEmail    string `mapstructure:"from_email"`
	AWSRegion    string `mapstructure:"aws_region"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
