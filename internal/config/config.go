package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by storage.driver.
const (
	StorageDriverLocal = "local"
	StorageDriverMinio = "minio"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	DatabaseURL     string
	DatabasePool    DatabasePool
	RedisURL        string
	NATSURL         string
	NATSSubject     string
	JWTSecret       string
	UploadDir       string
	UploadMaxBytes  int64
	UploadRateLimit int
	StorageDriver   string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool
	SummaryCacheTTL time.Duration
}

// DatabasePool bounds the Postgres connection pool.
type DatabasePool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SIDUPAK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "SIDUPAK API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject", "sidupak.submissions")
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_mb", 5)
	v.SetDefault("upload.rate_limit", 30)
	v.SetDefault("storage.driver", StorageDriverLocal)
	v.SetDefault("minio.bucket", "sidupak-evidence")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("summary.cache_ttl", "5m")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	ttlString := v.GetString("summary.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid summary cache ttl: %w", err)
	}

	lifetime, err := time.ParseDuration(v.GetString("database.conn_max_lifetime"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid database connection lifetime: %w", err)
	}

	maxMB := v.GetInt("upload.max_mb")
	if maxMB <= 0 {
		maxMB = 5
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DatabaseURL:     v.GetString("database.url"),
		DatabasePool: DatabasePool{
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: lifetime,
		},
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		NATSSubject:     v.GetString("nats.subject"),
		JWTSecret:       v.GetString("jwt.secret"),
		UploadDir:       v.GetString("upload.dir"),
		UploadMaxBytes:  int64(maxMB) << 20,
		UploadRateLimit: v.GetInt("upload.rate_limit"),
		StorageDriver:   strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
		MinioEndpoint:   v.GetString("minio.endpoint"),
		MinioAccessKey:  v.GetString("minio.access_key"),
		MinioSecretKey:  v.GetString("minio.secret_key"),
		MinioBucket:     v.GetString("minio.bucket"),
		MinioUseSSL:     v.GetBool("minio.use_ssl"),
		SummaryCacheTTL: ttl,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.StorageDriver {
	case StorageDriverLocal:
	case StorageDriverMinio:
		if cfg.MinioEndpoint == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
			return Config{}, fmt.Errorf("minio storage requires endpoint and credentials")
		}
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.UploadRateLimit <= 0 {
		cfg.UploadRateLimit = 30
	}

	return cfg, nil
}
