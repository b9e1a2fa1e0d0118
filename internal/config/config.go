package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Auth      AuthConfig      `mapstructure:"auth"`
	AI        AIConfig        `mapstructure:"ai"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Upload    UploadConfig    `mapstructure:"upload"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port         int    `mapstructure:"port"`
	CookieDomain string `mapstructure:"cookie_domain"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
}

// AuthConfig contains JWT signing material and token lifetimes.
type AuthConfig struct {
	PrivateKeyPath  string        `mapstructure:"private_key_path"`
	PublicKeyPath   string        `mapstructure:"public_key_path"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// AIConfig 描述外部文本生成服务的接入参数。
type AIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig 描述各端点类别在固定窗口内允许的请求数。
type RateLimitConfig struct {
	GenerateMax    int           `mapstructure:"generate_max"`
	GenerateWindow time.Duration `mapstructure:"generate_window"`
	ScoreMax       int           `mapstructure:"score_max"`
	ScoreWindow    time.Duration `mapstructure:"score_window"`
	LoginMax       int           `mapstructure:"login_max"`
	LoginWindow    time.Duration `mapstructure:"login_window"`
	LockThreshold  int           `mapstructure:"lock_threshold"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
}

// UploadConfig 描述文档上传的限制与病毒扫描配置。
type UploadConfig struct {
	MaxSizeBytes int64  `mapstructure:"max_size_bytes"`
	ClamdAddr    string `mapstructure:"clamd_addr"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Addr 返回 host:port 形式的 Redis 地址。
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "careerpilot")
	v.SetDefault("database.user", "careerpilot")
	v.SetDefault("database.password", "careerpilot")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "resume-uploads")
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ratelimit.generate_max", 10)
	v.SetDefault("ratelimit.generate_window", time.Hour)
	v.SetDefault("ratelimit.score_max", 30)
	v.SetDefault("ratelimit.score_window", time.Hour)
	v.SetDefault("ratelimit.login_max", 10)
	v.SetDefault("ratelimit.login_window", time.Hour)
	v.SetDefault("ratelimit.lock_threshold", 5)
	v.SetDefault("ratelimit.lock_ttl", 15*time.Minute)
	v.SetDefault("upload.max_size_bytes", int64(10*1024*1024))
	v.SetDefault("upload.clamd_addr", "tcp://localhost:3310")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                  "API_PORT",
		"api.cookie_domain":         "API_COOKIE_DOMAIN",
		"database.host":             "DATABASE_HOST",
		"database.port":             "DATABASE_PORT",
		"database.name":             "POSTGRES_DB",
		"database.user":             "POSTGRES_USER",
		"database.password":         "POSTGRES_PASSWORD",
		"database.sslmode":          "DATABASE_SSLMODE",
		"redis.host":                "REDIS_HOST",
		"redis.port":                "REDIS_PORT",
		"minio.endpoint":            "MINIO_ENDPOINT",
		"minio.access_key_id":       "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":   "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":             "MINIO_USE_SSL",
		"minio.bucket":              "MINIO_BUCKET",
		"auth.private_key_path":     "AUTH_PRIVATE_KEY_PATH",
		"auth.public_key_path":      "AUTH_PUBLIC_KEY_PATH",
		"auth.access_token_ttl":     "AUTH_ACCESS_TOKEN_TTL",
		"auth.refresh_token_ttl":    "AUTH_REFRESH_TOKEN_TTL",
		"ai.base_url":               "AI_BASE_URL",
		"ai.api_key":                "AI_API_KEY",
		"ai.model":                  "AI_MODEL",
		"ai.temperature":            "AI_TEMPERATURE",
		"ai.max_tokens":             "AI_MAX_TOKENS",
		"ai.timeout":                "AI_TIMEOUT",
		"ratelimit.generate_max":    "RATELIMIT_GENERATE_MAX",
		"ratelimit.generate_window": "RATELIMIT_GENERATE_WINDOW",
		"ratelimit.score_max":       "RATELIMIT_SCORE_MAX",
		"ratelimit.score_window":    "RATELIMIT_SCORE_WINDOW",
		"ratelimit.login_max":       "RATELIMIT_LOGIN_MAX",
		"ratelimit.login_window":    "RATELIMIT_LOGIN_WINDOW",
		"ratelimit.lock_threshold":  "RATELIMIT_LOCK_THRESHOLD",
		"ratelimit.lock_ttl":        "RATELIMIT_LOCK_TTL",
		"upload.max_size_bytes":     "UPLOAD_MAX_SIZE_BYTES",
		"upload.clamd_addr":         "UPLOAD_CLAMD_ADDR",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.Auth.PrivateKeyPath == "" || cfg.Auth.PublicKeyPath == "" {
		return errors.New("auth key paths are required")
	}
	if cfg.AI.BaseURL == "" {
		return errors.New("ai base url is required")
	}
	if cfg.AI.APIKey == "" {
		return errors.New("ai api key is required")
	}
	if cfg.AI.Model == "" {
		return errors.New("ai model is required")
	}
	if cfg.RateLimit.GenerateMax <= 0 || cfg.RateLimit.GenerateWindow <= 0 {
		return errors.New("generate rate limit must be positive")
	}
	if cfg.Upload.MaxSizeBytes <= 0 {
		return errors.New("upload max size must be positive")
	}
	return nil
}
