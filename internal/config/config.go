package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
	File   string `yaml:"file"`
}

type Config struct {
	Port           string   `yaml:"port"`
	FrontendURL    string   `yaml:"frontend_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	MatchmakingTimeoutSeconds int `yaml:"matchmaking_timeout_seconds"`
	ReconnectGraceSeconds     int `yaml:"reconnect_grace_seconds"`
	BotDelayMinMS             int `yaml:"bot_delay_min_ms"`
	BotDelayMaxMS             int `yaml:"bot_delay_max_ms"`
	BotSearchDepth            int `yaml:"bot_search_depth"`

	StoreBackend         string `yaml:"store_backend"`
	DatabaseURL          string `yaml:"database_url"`
	DBMaxOpenConns       int    `yaml:"db_max_open_conns"`
	DBMaxIdleConns       int    `yaml:"db_max_idle_conns"`
	DBConnMaxLifetimeMin int    `yaml:"db_conn_max_lifetime_minutes"`
	RedisURL             string `yaml:"redis_url"`
	RedisPassword        string `yaml:"redis_password"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	JWTSecret string `yaml:"jwt_secret"`

	PersistWorkers int `yaml:"persist_workers"`
	PersistRetries int `yaml:"persist_retries"`

	Log LogConfig `yaml:"log"`
}

func Default() *Config {
	return &Config{
		Port:                      "8080",
		FrontendURL:               "http://localhost:5173",
		MatchmakingTimeoutSeconds: 10,
		ReconnectGraceSeconds:     30,
		BotDelayMinMS:             500,
		BotDelayMaxMS:             1000,
		BotSearchDepth:            4,
		StoreBackend:              StoreMemory,
		DBMaxOpenConns:            25,
		DBMaxIdleConns:            25,
		DBConnMaxLifetimeMin:      5,
		RedisURL:                  "localhost:6379",
		KafkaTopic:                "game-events",
		PersistWorkers:            8,
		PersistRetries:            3,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file
// named by CONFIG_FILE, then environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := GetEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from the environment. Malformed integers are
// returned together as one error.
func (c *Config) applyEnv() error {
	var errs []error
	intVar := func(dst *int, key string) {
		v, err := GetEnvAsInt(key, *dst)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = v
	}

	c.Port = GetEnv("PORT", c.Port)
	c.FrontendURL = GetEnv("FRONTEND_URL", c.FrontendURL)
	if extra := GetEnvAsList("ALLOWED_ORIGINS"); len(extra) > 0 {
		c.AllowedOrigins = append(c.AllowedOrigins, extra...)
	}

	intVar(&c.MatchmakingTimeoutSeconds, "MATCHMAKING_TIMEOUT_SECONDS")
	intVar(&c.ReconnectGraceSeconds, "RECONNECT_GRACE_SECONDS")
	intVar(&c.BotDelayMinMS, "BOT_DELAY_MIN_MS")
	intVar(&c.BotDelayMaxMS, "BOT_DELAY_MAX_MS")
	intVar(&c.BotSearchDepth, "BOT_SEARCH_DEPTH")

	c.StoreBackend = strings.ToLower(GetEnv("STORE_BACKEND", c.StoreBackend))
	c.DatabaseURL = GetEnv("DATABASE_URL", GetEnv("DATABASE_URI", c.DatabaseURL))
	intVar(&c.DBMaxOpenConns, "DB_MAX_OPEN_CONNS")
	intVar(&c.DBMaxIdleConns, "DB_MAX_IDLE_CONNS")
	intVar(&c.DBConnMaxLifetimeMin, "DB_CONN_MAX_LIFETIME_MINUTES")
	c.RedisURL = GetEnv("REDIS_URL", c.RedisURL)
	c.RedisPassword = GetEnv("REDIS_PASSWORD", c.RedisPassword)

	if brokers := GetEnvAsList("KAFKA_BROKERS"); len(brokers) > 0 {
		c.KafkaBrokers = brokers
	}
	c.KafkaTopic = GetEnv("KAFKA_TOPIC", c.KafkaTopic)

	c.JWTSecret = GetEnv("JWT_SECRET", c.JWTSecret)

	intVar(&c.PersistWorkers, "PERSIST_WORKERS")
	intVar(&c.PersistRetries, "PERSIST_RETRIES")

	c.Log.Level = GetEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = GetEnv("LOG_FORMAT", c.Log.Format)
	c.Log.File = GetEnv("LOG_FILE", c.Log.File)

	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", StorePostgres)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}

	if c.BotDelayMaxMS < c.BotDelayMinMS {
		return fmt.Errorf("bot delay max (%dms) is below min (%dms)", c.BotDelayMaxMS, c.BotDelayMinMS)
	}
	if c.MatchmakingTimeoutSeconds <= 0 || c.ReconnectGraceSeconds <= 0 {
		return fmt.Errorf("matchmaking timeout and reconnect grace must be positive")
	}
	return nil
}

// Origins is the CORS allow list: the frontend URL plus any extras.
func (c *Config) Origins() []string {
	origins := []string{c.FrontendURL}
	for _, o := range c.AllowedOrigins {
		if o != "" && o != c.FrontendURL {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) MatchmakingTimeout() time.Duration {
	return time.Duration(c.MatchmakingTimeoutSeconds) * time.Second
}

func (c *Config) ReconnectGrace() time.Duration {
	return time.Duration(c.ReconnectGraceSeconds) * time.Second
}

func (c *Config) BotDelayMin() time.Duration {
	return time.Duration(c.BotDelayMinMS) * time.Millisecond
}

func (c *Config) BotDelayMax() time.Duration {
	return time.Duration(c.BotDelayMaxMS) * time.Millisecond
}

func (c *Config) DBConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeMin) * time.Minute
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvAsInt returns defaultValue when key is unset and an error when it
// is set to something that is not an integer.
func GetEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid integer for %s: %q", key, valueStr)
	}
	return value, nil
}

// GetEnvAsList splits a comma separated variable, dropping blanks.
func GetEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
