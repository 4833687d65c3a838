package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers accepted by database.driver.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the merchant-service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Nacos    NacosConfig    `mapstructure:"nacos"`
	Log      LogConfig      `mapstructure:"log"`
	Listing  ListingConfig  `mapstructure:"listing"`
	Merchant MerchantConfig `mapstructure:"merchant"`
}

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	// Mode is the gin mode: debug, release or test.
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig selects the merchant store and its Postgres connection.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL returns the postgres:// form expected by the migration runner.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

// JWTConfig enables bearer authentication when Secret is set.
type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

// KafkaConfig enables the status command consumer.
type KafkaConfig struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// NacosConfig enables service registration.
type NacosConfig struct {
	Enable      bool              `mapstructure:"enable"`
	ServerAddr  string            `mapstructure:"server_addr"` // host:port
	NamespaceID string            `mapstructure:"namespace_id"`
	Group       string            `mapstructure:"group"`
	ServiceName string            `mapstructure:"service_name"`
	ServiceIP   string            `mapstructure:"service_ip"`
	Metadata    map[string]string `mapstructure:"metadata"`
	Weight      float64           `mapstructure:"weight"`
	LogDir      string            `mapstructure:"log_dir"`
	CacheDir    string            `mapstructure:"cache_dir"`
	// HeartbeatInterval is how often the registered instance is refreshed.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// LogConfig feeds logger.Config.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	JSONFormat bool   `mapstructure:"json_format"`
}

// ListingConfig bounds the page size of list queries.
type ListingConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

// MerchantConfig shapes generated merchant identifiers.
type MerchantConfig struct {
	IDPrefix      string `mapstructure:"id_prefix"`
	IDLength      int    `mapstructure:"id_length"`
	IDMaxAttempts int    `mapstructure:"id_max_attempts"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "merchants")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("kafka.enable", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "merchant-commands")
	v.SetDefault("kafka.group_id", "merchant-service")

	v.SetDefault("nacos.enable", false)
	v.SetDefault("nacos.server_addr", "localhost:8848")
	v.SetDefault("nacos.namespace_id", "public")
	v.SetDefault("nacos.group", "DEFAULT_GROUP")
	v.SetDefault("nacos.service_name", "merchant-service")
	v.SetDefault("nacos.weight", 10.0)
	v.SetDefault("nacos.log_dir", "/tmp/nacos/log")
	v.SetDefault("nacos.cache_dir", "/tmp/nacos/cache")
	v.SetDefault("nacos.heartbeat_interval", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file_path", "")
	v.SetDefault("log.json_format", true)

	v.SetDefault("listing.default_page_size", 20)
	v.SetDefault("listing.max_page_size", 100)

	v.SetDefault("merchant.id_prefix", "MRC")
	v.SetDefault("merchant.id_length", 8)
	v.SetDefault("merchant.id_max_attempts", 5)
}

// LoadConfig reads configPath when it exists, overlays environment variables
// (DATABASE_HOST for database.host and so on) and validates the result.
// An empty or missing configPath leaves defaults and environment only.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	// Overlays the legacy PORT variable.
	if port := os.Getenv("PORT"); port != "" {
		v.Set("server.port", port)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Database.Driver)
	}
	if c.Listing.DefaultPageSize <= 0 || c.Listing.MaxPageSize <= 0 {
		return fmt.Errorf("listing page sizes must be positive")
	}
	if c.Listing.DefaultPageSize > c.Listing.MaxPageSize {
		return fmt.Errorf("listing.default_page_size (%d) exceeds listing.max_page_size (%d)",
			c.Listing.DefaultPageSize, c.Listing.MaxPageSize)
	}
	if c.Merchant.IDPrefix == "" {
		return fmt.Errorf("merchant.id_prefix is required")
	}
	if c.Merchant.IDLength < 4 {
		return fmt.Errorf("merchant.id_length must be at least 4")
	}
	if c.Merchant.IDMaxAttempts < 1 {
		return fmt.Errorf("merchant.id_max_attempts must be at least 1")
	}
	if c.Kafka.Enable && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	return nil
}
