package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	RelayLocal = "local"
	RelayRedis = "redis"

	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Port        string        `env:"PORT,        default=8080"`
	Env         string        `env:"ENV,         default=development"`
	JWTSecret   string        `env:"JWT_SECRET,  required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,   default=24h"`
	LogLevel    string        `env:"LOG_LEVEL,   default=info"`
	LogPretty   bool          `env:"LOG_PRETTY,  default=false"`
	CORSOrigins []string      `env:"CORS_ORIGINS, default=*"`

	RelayDriver   string `env:"RELAY_DRIVER,   default=local"`
	NotifyWorkers int    `env:"NOTIFY_WORKERS, default=8"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Storage   StorageConfig
	WebSocket WebSocketConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=connectify"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type StorageConfig struct {
	Driver         string `env:"STORAGE_DRIVER,      default=local"`
	LocalPath      string `env:"STORAGE_LOCAL_PATH,  default=./uploads"`
	PublicBaseURL  string `env:"STORAGE_PUBLIC_URL,  default=/media"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES,    default=5242880"`
	AvatarSize     int    `env:"AVATAR_SIZE,         default=256"`

	S3 S3Config
}

type S3Config struct {
	Bucket       string `env:"S3_BUCKET"`
	Region       string `env:"S3_REGION,         default=us-east-1"`
	Endpoint     string `env:"S3_ENDPOINT"`
	AccessKey    string `env:"S3_ACCESS_KEY"`
	SecretKey    string `env:"S3_SECRET_KEY"`
	UsePathStyle bool   `env:"S3_USE_PATH_STYLE, default=false"`
	PublicURL    string `env:"S3_PUBLIC_URL"`
}

type WebSocketConfig struct {
	WriteWait      time.Duration `env:"WS_WRITE_WAIT,       default=10s"`
	PongWait       time.Duration `env:"WS_PONG_WAIT,        default=60s"`
	PingInterval   time.Duration `env:"WS_PING_INTERVAL,    default=54s"`
	MaxMessageSize int64         `env:"WS_MAX_MESSAGE_SIZE, default=65536"`
	SendBuffer     int           `env:"WS_SEND_BUFFER,      default=256"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks enumerations and cross-field requirements.
func (c *Config) Validate() error {
	var errs []error

	switch c.RelayDriver {
	case RelayLocal, RelayRedis:
	default:
		errs = append(errs, fmt.Errorf("RELAY_DRIVER must be %q or %q, got %q", RelayLocal, RelayRedis, c.RelayDriver))
	}

	switch c.Storage.Driver {
	case StorageLocal:
		if strings.TrimSpace(c.Storage.LocalPath) == "" {
			errs = append(errs, errors.New("STORAGE_LOCAL_PATH is required for the local storage driver"))
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageLocal, StorageS3, c.Storage.Driver))
	}

	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.WebSocket.PingInterval >= c.WebSocket.PongWait {
		errs = append(errs, errors.New("WS_PING_INTERVAL must be shorter than WS_PONG_WAIT"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
