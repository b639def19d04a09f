package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendBadger = "badger"
)

type Config struct {
	Port         string        `envconfig:"PORT" default:"8080"`
	StoreBackend string        `envconfig:"STORE_BACKEND" default:"memory"`
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`

	RedisURI string        `envconfig:"REDIS_URI" default:"redis://localhost:6379/0"`
	RedisTTL time.Duration `envconfig:"REDIS_TTL" default:"24h"`

	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"partyrooms"`

	// BadgerPath empty runs Badger in memory
	BadgerPath string `envconfig:"BADGER_PATH" default:"data/badger"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	QuizStartDelay   time.Duration `envconfig:"QUIZ_START_DELAY" default:"2s"`
	WSMaxMessageSize int64         `envconfig:"WS_MAX_MESSAGE_SIZE" default:"65536"`
	WSSendBuffer     int           `envconfig:"WS_SEND_BUFFER" default:"256"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Load reads an optional .env file, then the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendRedis, BackendMongo, BackendBadger:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.QuizStartDelay < 0 {
		return fmt.Errorf("QUIZ_START_DELAY must not be negative")
	}
	return nil
}

// Level maps LOG_LEVEL to a slog level, defaulting to info
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger builds the JSON logger used by every component
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
