package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the whole process configuration.
type Config struct {
	Server    Server          `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Log       LogConfig       `mapstructure:"log"`
	Directory DirectoryConfig `mapstructure:"directory"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `mapstructure:"addr"`
	JWTSigningKey  string        `mapstructure:"jwt_signing_key"`
	JWTIssuer      string        `mapstructure:"jwt_issuer"`
	JWTAudience    string        `mapstructure:"jwt_audience"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StorageConfig selects the repository implementation.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig is optional: an empty URL disables the dashboard cache and the
// redis reference sequence.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DashboardTTL time.Duration `mapstructure:"dashboard_ttl"`
}

// KafkaConfig is optional: without brokers the outbox is relayed in process
// to the history projection and notifications are dropped.
type KafkaConfig struct {
	Brokers           []string      `mapstructure:"brokers"`
	NotificationTopic string        `mapstructure:"notification_topic"`
	HistoryTopic      string        `mapstructure:"history_topic"`
	RelayInterval     time.Duration `mapstructure:"relay_interval"`
	RelayBatch        int           `mapstructure:"relay_batch"`
	HistoryGroup      string        `mapstructure:"history_group"`
	Partitions        int32         `mapstructure:"partitions"`
	ReplicationFactor int16         `mapstructure:"replication_factor"`
}

// RateLimitConfig caps the requests of each actor per window. Counters live
// in redis when it is configured, in process otherwise.
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Reads   int           `mapstructure:"reads"`
	Writes  int           `mapstructure:"writes"`
	Window  time.Duration `mapstructure:"window"`
}

// DirectoryConfig seeds the in-process people directory. Each person may
// hold manager roles, optionally scoped to one CDD.
type DirectoryConfig struct {
	People []DirectoryPerson `mapstructure:"people"`
}

type DirectoryPerson struct {
	Matricule string          `mapstructure:"matricule"`
	FirstName string          `mapstructure:"first_name"`
	LastName  string          `mapstructure:"last_name"`
	Email     string          `mapstructure:"email"`
	Language  string          `mapstructure:"language"`
	Roles     []DirectoryRole `mapstructure:"roles"`
}

type DirectoryRole struct {
	Role string `mapstructure:"role"`
	CDD  string `mapstructure:"cdd"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads defaults, then the yaml file at path (or ./config.yaml when
// path is empty), then PARCOURS_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.jwt_signing_key", "dev-secret-key-change-in-production")
	v.SetDefault("server.jwt_issuer", "parcours-idp")
	v.SetDefault("server.jwt_audience", "parcours")
	v.SetDefault("server.request_timeout", "10s")

	v.SetDefault("storage.driver", DriverMemory)

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", "1h")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.dashboard_ttl", "1m")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.notification_topic", "parcours.notification")
	v.SetDefault("kafka.history_topic", "parcours.history")
	v.SetDefault("kafka.history_group", "parcours-history-projection")
	v.SetDefault("kafka.partitions", 6)
	v.SetDefault("kafka.replication_factor", 1)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.reads", 100)
	v.SetDefault("rate_limit.writes", 50)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("kafka.relay_interval", "2s")
	v.SetDefault("kafka.relay_batch", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PARCOURS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv loads the configuration without an explicit file.
func FromEnv() (*Config, error) {
	return Load("")
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("config: db.dsn is required with the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	for _, p := range c.Directory.People {
		if p.Matricule == "" {
			return errors.New("config: directory person without matricule")
		}
	}
	if c.Server.JWTSigningKey == "" {
		return errors.New("config: server.jwt_signing_key is required")
	}
	return nil
}
