package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const defaultConfigPath = "src/internal/config/cfg.yml"

type Configuration struct {
	Logs     LogsSettings     `mapstructure:"logs"`
	App      Application      `mapstructure:"app"`
	Database Database         `mapstructure:"database"`
	Queue    QueueConfig      `mapstructure:"queue"`
	Redis    Redis            `mapstructure:"redis"`
	Security SecuritySettings `mapstructure:"security"`
	Server   ServerSettings   `mapstructure:"server"`
	Backend  BackendSettings  `mapstructure:"backend"`
	Session  SessionSettings  `mapstructure:"session"`
	Search   SearchConfig     `mapstructure:"search"`
	Cache    CacheConfig      `mapstructure:"cache"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name    string `mapstructure:"name"`
	Timeout int    `mapstructure:"timeout"`
	Version string `mapstructure:"version"`
}

type Database struct {
	Url                    string `mapstructure:"url"`
	DbName                 string `mapstructure:"dbname"`
	SessionCollection      string `mapstructure:"session-collection"`
	ReassignmentCollection string `mapstructure:"reassignment-collection"`
	Timeout                int    `mapstructure:"timeout"`
}

type SearchConfig struct {
	MinQueryLimit int `mapstructure:"min-query-limit"`
	MaxQueryLimit int `mapstructure:"max-query-limit"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Url          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange-type"`
	RoutingKey   string `mapstructure:"routing-key"`
	Durable      bool   `mapstructure:"durable"`
	AutoDelete   bool   `mapstructure:"auto-delete"`
	Internal     bool   `mapstructure:"internal"`
	NoWait       bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type SecuritySettings struct {
	JwtKey          string `mapstructure:"jwt-key"`
	TokenTTLMinutes int    `mapstructure:"token-ttl-minutes"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
}

// BackendSettings points at the SIKep REST backend.
type BackendSettings struct {
	URL     string `mapstructure:"url"`
	Timeout int    `mapstructure:"timeout"`
}

// SessionSettings drives the activity tracker. Durations are in milliseconds.
type SessionSettings struct {
	TimeoutMs                 int64 `mapstructure:"timeout-ms"`
	WarningLeadMs             int64 `mapstructure:"warning-lead-ms"`
	WarningGraceMs            int64 `mapstructure:"warning-grace-ms"`
	PollIntervalMs            int64 `mapstructure:"poll-interval-ms"`
	TombstoneRetentionMinutes int   `mapstructure:"tombstone-retention-minutes"`
}

type CacheConfig struct {
	SessionKeyPrefix              string `mapstructure:"session-key-prefix"`
	SessionExpirationMinutes      int    `mapstructure:"session-expiration-minutes"`
	OfficialStatKey               string `mapstructure:"official-stat-key"`
	OfficialStatExpirationMinutes int    `mapstructure:"official-stat-expiration-minutes"`
}

func (s SessionSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

func (s SessionSettings) WarningLead() time.Duration {
	return time.Duration(s.WarningLeadMs) * time.Millisecond
}

func (s SessionSettings) WarningGrace() time.Duration {
	return time.Duration(s.WarningGraceMs) * time.Millisecond
}

func (s SessionSettings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMs) * time.Millisecond
}

func (s SessionSettings) TombstoneRetention() time.Duration {
	return time.Duration(s.TombstoneRetentionMinutes) * time.Minute
}

func Load() *Configuration {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		logrus.Panicf("Error loading configuration: %s", err)
	}
	logrus.Info("Configuration loaded")

	return cfg
}

// LoadFrom reads the yaml file at path, applies environment overrides and
// validates the result.
func LoadFrom(path string) (*Configuration, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the invariants the rest of the service relies on.
func (c *Configuration) Validate() error {
	if c.Session.TimeoutMs <= 0 {
		return fmt.Errorf("session.timeout-ms must be positive, got %d", c.Session.TimeoutMs)
	}
	if c.Session.WarningLeadMs <= 0 || c.Session.WarningLeadMs >= c.Session.TimeoutMs {
		return fmt.Errorf("session.warning-lead-ms must be in (0, %d), got %d",
			c.Session.TimeoutMs, c.Session.WarningLeadMs)
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if c.Security.JwtKey == "" {
		return fmt.Errorf("security.jwt-key is required")
	}
	return nil
}

func applyEnv(cfg *Configuration) {
	mongoUri := os.Getenv("MONGODB_URL")
	if mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	dbName := os.Getenv("DB_NAME")
	if dbName != "" {
		cfg.Database.DbName = dbName
	}

	redisUrl := os.Getenv("REDIS_URL")
	if redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	redisDB := os.Getenv("REDIS_DB")
	if redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	rabbitmqUrl := os.Getenv("RABBITMQ_URL")
	if rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	backendUrl := os.Getenv("SIKEP_BACKEND_URL")
	if backendUrl != "" {
		cfg.Backend.URL = backendUrl
	}

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}
}

func applyDefaults(cfg *Configuration) {
	if cfg.App.Timeout == 0 {
		cfg.App.Timeout = 15
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 10
	}
	if cfg.Database.Timeout == 0 {
		cfg.Database.Timeout = 10
	}
	if cfg.Session.TimeoutMs == 0 {
		cfg.Session.TimeoutMs = 600000
	}
	if cfg.Session.WarningLeadMs == 0 {
		cfg.Session.WarningLeadMs = 60000
	}
	if cfg.Session.WarningGraceMs == 0 {
		cfg.Session.WarningGraceMs = 60000
	}
	if cfg.Session.PollIntervalMs == 0 {
		cfg.Session.PollIntervalMs = 1000
	}
	if cfg.Session.TombstoneRetentionMinutes == 0 {
		cfg.Session.TombstoneRetentionMinutes = 5
	}
	if cfg.Security.TokenTTLMinutes == 0 {
		cfg.Security.TokenTTLMinutes = 720
	}
	if cfg.Search.MinQueryLimit == 0 {
		cfg.Search.MinQueryLimit = 20
	}
	if cfg.Search.MaxQueryLimit == 0 {
		cfg.Search.MaxQueryLimit = 100
	}
	if cfg.Cache.SessionKeyPrefix == "" {
		cfg.Cache.SessionKeyPrefix = "sikep:session"
	}
	if cfg.Cache.OfficialStatKey == "" {
		cfg.Cache.OfficialStatKey = "sikep:official-stats"
	}
}

func read(path string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetConfigType("yml")

	var config Configuration

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	return &config, nil
}
