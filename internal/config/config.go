package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // sweep.timezone must resolve on hosts without zoneinfo

	"github.com/spf13/viper"
)

// Config holds runtime configuration for the SFM service.
type Config struct {
	// NodeID identifies this instance on published events (hostname when empty)
	NodeID   string         `mapstructure:"node_id" yaml:"node_id"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Sweep    SweepConfig    `mapstructure:"sweep" yaml:"sweep"`
	Kafka    KafkaConfig    `mapstructure:"kafka" yaml:"kafka"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	// Driver: sqlite or postgres
	Driver        string        `mapstructure:"driver" yaml:"driver"`
	DSN           string        `mapstructure:"dsn" yaml:"dsn"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold" yaml:"slow_threshold"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// SweepConfig configures the alert sweep.
type SweepConfig struct {
	// Interval between scheduled sweeps; 0 disables the schedule
	Interval  time.Duration `mapstructure:"interval" yaml:"interval"`
	Retention time.Duration `mapstructure:"retention" yaml:"retention"`
	// Timezone used to decide what "today" is for due dates
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// KafkaConfig configures alert event publishing. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers" yaml:"brokers"`
	Topic    string         `mapstructure:"topic" yaml:"topic"`
	GroupID  string         `mapstructure:"group_id" yaml:"group_id"`
	Producer ProducerConfig `mapstructure:"producer" yaml:"producer"`
}

// ProducerConfig holds kafka writer tuning.
type ProducerConfig struct {
	PoolSize     int           `mapstructure:"pool_size" yaml:"pool_size"`
	BatchSize    int           `mapstructure:"batch_size" yaml:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout" yaml:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	RequiredAcks int           `mapstructure:"required_acks" yaml:"required_acks"`
	Compression  string        `mapstructure:"compression" yaml:"compression"`
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`
}

// Enabled reports whether alert events should be published.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// Default returns a sensible default config for local dev.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:        "sqlite",
			DSN:           "sfm.db",
			SlowThreshold: 200 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
		Sweep: SweepConfig{
			Interval:  15 * time.Minute,
			Retention: 7 * 24 * time.Hour,
			Timezone:  "UTC",
		},
		Kafka: KafkaConfig{
			Topic:   "sfm.alerts",
			GroupID: "sfm-alerts-tail",
			Producer: ProducerConfig{
				PoolSize:     2,
				BatchSize:    50,
				BatchTimeout: 500 * time.Millisecond,
				WriteTimeout: 10 * time.Second,
				RequiredAcks: 1,
				Compression:  "snappy",
				MaxRetries:   3,
				RetryBackoff: 100 * time.Millisecond,
			},
		},
	}
}

// Load reads configuration from a YAML file and SFM_* environment variables.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sfm")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/sfm")
	}

	v.SetEnvPrefix("SFM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can see it.
	v.SetDefault("node_id", def.NodeID)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.read_timeout", def.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", def.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", def.Server.IdleTimeout)
	v.SetDefault("server.allowed_origins", def.Server.AllowedOrigins)
	v.SetDefault("database.driver", def.Database.Driver)
	v.SetDefault("database.dsn", def.Database.DSN)
	v.SetDefault("database.slow_threshold", def.Database.SlowThreshold)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.pretty", def.Log.Pretty)
	v.SetDefault("sweep.interval", def.Sweep.Interval)
	v.SetDefault("sweep.retention", def.Sweep.Retention)
	v.SetDefault("sweep.timezone", def.Sweep.Timezone)
	v.SetDefault("kafka.brokers", def.Kafka.Brokers)
	v.SetDefault("kafka.topic", def.Kafka.Topic)
	v.SetDefault("kafka.group_id", def.Kafka.GroupID)
	v.SetDefault("kafka.producer.pool_size", def.Kafka.Producer.PoolSize)
	v.SetDefault("kafka.producer.batch_size", def.Kafka.Producer.BatchSize)
	v.SetDefault("kafka.producer.batch_timeout", def.Kafka.Producer.BatchTimeout)
	v.SetDefault("kafka.producer.write_timeout", def.Kafka.Producer.WriteTimeout)
	v.SetDefault("kafka.producer.required_acks", def.Kafka.Producer.RequiredAcks)
	v.SetDefault("kafka.producer.compression", def.Kafka.Producer.Compression)
	v.SetDefault("kafka.producer.max_retries", def.Kafka.Producer.MaxRetries)
	v.SetDefault("kafka.producer.retry_backoff", def.Kafka.Producer.RetryBackoff)

	if err := v.ReadInConfig(); err != nil {
		// An explicit path must exist; the search path may come up empty.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validation errors
var (
	ErrUnknownDriver    = errors.New("database.driver must be sqlite or postgres")
	ErrEmptyDSN         = errors.New("database.dsn cannot be empty")
	ErrNegativeInterval = errors.New("sweep.interval cannot be negative")
	ErrBadRetention     = errors.New("sweep.retention must be positive")
	ErrEmptyTopic       = errors.New("kafka.topic is required when brokers are set")
)

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return ErrUnknownDriver
	}
	if c.Database.DSN == "" {
		return ErrEmptyDSN
	}
	if c.Sweep.Interval < 0 {
		return ErrNegativeInterval
	}
	if c.Sweep.Retention <= 0 {
		return ErrBadRetention
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return ErrEmptyTopic
	}
	return nil
}

// Location resolves the sweep timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Sweep.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Sweep.Timezone)
	if err != nil {
		return nil, fmt.Errorf("sweep.timezone: %w", err)
	}
	return loc, nil
}
