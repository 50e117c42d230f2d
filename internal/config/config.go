package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Storage     StorageConfig
	Video       VideoConfig       `mapstructure:"video"`
	Upload      UploadConfig      `mapstructure:"upload"`
	Certificate CertificateConfig `mapstructure:"certificate"`
	Mail        MailConfig        `mapstructure:"mail"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	Redis       RedisConfig
	CORS        CORSConfig      `mapstructure:"cors"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`

	// Runtime flags set from command line, not from the config file.
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

// VideoConfig describes the remote video CDN that hosts course videos.
type VideoConfig struct {
	APIBaseURL  string `mapstructure:"api_base_url"`
	LibraryID   string `mapstructure:"library_id"`
	AccessKey   string `mapstructure:"access_key"`
	TusEndpoint string `mapstructure:"tus_endpoint"`
	PullZone    string `mapstructure:"pull_zone"`
}

type UploadConfig struct {
	ChunkSizeMB     int    `mapstructure:"chunk_size_mb"`
	MaxRetries      int    `mapstructure:"max_retries"`
	SessionDir      string `mapstructure:"session_dir"`
	SessionStore    string `mapstructure:"session_store"` // file or redis
	SessionTTLHours int    `mapstructure:"session_ttl_hours"`
}

type CertificateConfig struct {
	GeneratorURL string `mapstructure:"generator_url"`
	APIKey       string `mapstructure:"api_key"`
}

type MailConfig struct {
	SendgridKey string `mapstructure:"sendgrid_key"`
	FromName    string `mapstructure:"from_name"`
	FromEmail   string `mapstructure:"from_email"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("CLOSER_CLUB")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Video CDN
	viper.BindEnv("video.api_base_url", "VIDEO_API_BASE_URL")
	viper.BindEnv("video.library_id", "VIDEO_LIBRARY_ID")
	viper.BindEnv("video.access_key", "VIDEO_ACCESS_KEY")
	viper.BindEnv("video.tus_endpoint", "VIDEO_TUS_ENDPOINT")
	viper.BindEnv("video.pull_zone", "VIDEO_PULL_ZONE")

	// Certificate generator
	viper.BindEnv("certificate.generator_url", "CERTIFICATE_GENERATOR_URL")
	viper.BindEnv("certificate.api_key", "CERTIFICATE_API_KEY")

	// Mail
	viper.BindEnv("mail.sendgrid_key", "SENDGRID_API_KEY")
	viper.BindEnv("mail.from_email", "MAIL_FROM_EMAIL")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Upload.ChunkSizeMB <= 0 {
		cfg.Upload.ChunkSizeMB = 50
	}
	if cfg.Upload.MaxRetries <= 0 {
		cfg.Upload.MaxRetries = 3
	}
	if cfg.Upload.SessionTTLHours <= 0 {
		cfg.Upload.SessionTTLHours = 24
	}
	if cfg.Upload.SessionDir == "" {
		cfg.Upload.SessionDir = "data/upload-sessions"
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
