package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"HTTP_SERVER_PORT"` specify the environment variable
// name; `default:""` provides a fallback and `required:"true"` makes a
// variable mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	HttpServer ServerConfig
	Postgres   PostgresConfig
	Shopify    ShopifyConfig
	TryOn      TryOnConfig
	Auth       AuthConfig
	Cart       CartConfig
	Upload     UploadConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"5000"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"3m"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DBNAME" required:"true"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

// ShopifyConfig holds the upstream catalog credentials. Both values may be
// empty in development; catalog fetches then fail with an explicit error
// instead of blocking startup.
type ShopifyConfig struct {
	StoreURL    string        `envconfig:"SHOPIFY_STORE_URL"`
	AccessToken string        `envconfig:"SHOPIFY_ACCESS_TOKEN"`
	Timeout     time.Duration `envconfig:"SHOPIFY_TIMEOUT" default:"10s"`
}

// TryOnConfig holds the external image-processing service settings. The
// timeout is long on purpose; processing takes on the order of minutes.
type TryOnConfig struct {
	ServiceURL string        `envconfig:"TRYON_SERVICE_URL" default:"http://localhost:5001"`
	Timeout    time.Duration `envconfig:"TRYON_TIMEOUT" default:"2m"`
}

// AuthConfig holds admin token settings.
type AuthConfig struct {
	JWTSecret string        `envconfig:"JWT_SECRET" default:"secret-key-change-in-production"`
	TokenTTL  time.Duration `envconfig:"JWT_TOKEN_TTL" default:"24h"`
}

// CartConfig selects the ledger storage backend: "memory", "file" or "redis".
type CartConfig struct {
	Backend    string        `envconfig:"CART_BACKEND" default:"file"`
	FilePath   string        `envconfig:"CART_FILE_PATH" default:"data/cart.json"`
	RedisAddr  string        `envconfig:"CART_REDIS_ADDR" default:"localhost:6379"`
	RedisTTL   time.Duration `envconfig:"CART_REDIS_TTL" default:"0"`
	SessionKey string        `envconfig:"CART_SESSION_KEY" default:"default"`
}

// UploadConfig bounds try-on uploads.
type UploadConfig struct {
	MaxBytes int64 `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"` // 10 MiB
}

var cfg Config

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	log.Println("Loading service configuration...")
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	log.Printf("Configuration loaded successfully for APP_ENV: %s", cfg.AppEnv)
	return &cfg, nil
}

// Get returns the loaded configuration.
// Panics if Load() has not been called successfully.
func Get() *Config {
	if cfg.Postgres.Host == "" {
		log.Fatal("Configuration has not been loaded. Call config.Load() first.")
	}
	return &cfg
}
