package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	API      APIConfig      `yaml:"api"`
	Sync     SyncConfig     `yaml:"sync"`
	HTTP     HTTPConfig     `yaml:"http"`
	LogLevel string         `yaml:"log_level"`
}

type StorageConfig struct {
	Driver        string         `yaml:"driver"`
	CatalogPath   string         `yaml:"catalog_path"`
	StatePath     string         `yaml:"state_path"`
	SyncStatePath string         `yaml:"sync_state_path"`
	Database      DatabaseConfig `yaml:"database"`
}

// RabbitMQConfig is optional. An empty URL disables refresh events.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// APIConfig describes the upstream search endpoint.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	SiteURL     string        `yaml:"site_url"`
	IndexName   string        `yaml:"index_name"`
	Language    string        `yaml:"language"`
	HitsPerPage int           `yaml:"hits_per_page"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
}

// SyncConfig controls the refresh job. Schedule is a cron expression and
// takes precedence over Interval when set.
type SyncConfig struct {
	Interval   time.Duration `yaml:"interval"`
	Schedule   string        `yaml:"schedule"`
	RunOnStart bool          `yaml:"run_on_start"`
	Timeout    time.Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied, used when no
// config file is present.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageFile
	}
	if c.Storage.CatalogPath == "" {
		c.Storage.CatalogPath = "data/catalog.json"
	}
	if c.Storage.StatePath == "" {
		c.Storage.StatePath = "data/user_state.json"
	}
	if c.Storage.SyncStatePath == "" {
		c.Storage.SyncStatePath = "data/sync_state.json"
	}
	if c.Storage.Database.Port == 0 {
		c.Storage.Database.Port = 5432
	}
	if c.Storage.Database.SSLMode == "" {
		c.Storage.Database.SSLMode = "disable"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "webinar_archive"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "catalog.refreshed"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "catalog_refreshes"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://www.sans.org/api/algolia"
	}
	if c.API.SiteURL == "" {
		c.API.SiteURL = "https://www.sans.org"
	}
	if c.API.IndexName == "" {
		c.API.IndexName = "webinar_single_startDateTimestamp_asc"
	}
	if c.API.Language == "" {
		c.API.Language = "English"
	}
	if c.API.HitsPerPage == 0 {
		c.API.HitsPerPage = 100
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 20 * time.Second
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = "Mozilla/5.0 (compatible; webinar-archive/1.0)"
	}
	if c.Sync.Timeout == 0 {
		c.Sync.Timeout = 5 * time.Minute
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8411"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageFile:
		if c.Storage.CatalogPath == c.Storage.StatePath {
			return errors.New("storage.catalog_path and storage.state_path must differ")
		}
	case StoragePostgres:
		if c.Storage.Database.Host == "" || c.Storage.Database.DBName == "" {
			return errors.New("storage.database.host and storage.database.dbname are required for postgres")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if c.API.HitsPerPage < 0 {
		return errors.New("api.hits_per_page must be non-negative")
	}
	if c.Sync.Interval < 0 {
		return errors.New("sync.interval must be non-negative")
	}
	if c.Sync.Schedule != "" {
		if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
			return fmt.Errorf("invalid sync.schedule: %w", err)
		}
	}

	return nil
}

// SchedulerEnabled reports whether a periodic refresh is configured.
func (c *Config) SchedulerEnabled() bool {
	return c.Sync.Schedule != "" || c.Sync.Interval > 0
}
