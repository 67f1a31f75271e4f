package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Storage     StorageConfig
	OrphanSweep OrphanSweepConfig
	Telemetry   TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	SlowThreshold   time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// UsageCacheTTL is how long per-owner storage reports stay cached. Zero disables the cache.
	UsageCacheTTL time.Duration
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings. Tokens are issued by the account service;
// this service only validates them.
type JWTConfig struct {
	Secret                string
	Issuer                string
	AccessTokenExpiration time.Duration
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	MetricsEnabled   bool
	// Upload requests allowed per user within UploadRateWindow; 0 disables
	UploadRateLimit  int
	UploadRateWindow time.Duration
}

// StorageConfig holds media storage settings
type StorageConfig struct {
	// Backend selects the storage implementation: local, s3 or memory
	Backend string

	// Filesystem roots
	UploadDir    string
	AudioDir     string
	ImageDir     string
	VideoDir     string
	ServeStatics bool

	// Per-category size limits in bytes
	MaxImageSize int64
	MaxAudioSize int64
	MaxVideoSize int64

	// S3-compatible object storage
	Bucket            string
	Region            string
	Endpoint          string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
}

// OrphanSweepConfig holds the settings of the unreferenced media sweep
type OrphanSweepConfig struct {
	Enabled   bool
	Schedule  string // cron expression or descriptor such as @daily
	Retention time.Duration
	BatchSize int
	Timeout   time.Duration
}

// TelemetryConfig holds OpenTelemetry export settings
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	Insecure          bool
	// LogsEnabled mirrors zap output to the collector
	LogsEnabled bool
	// DBTracing adds a span per SQL statement
	DBTracing bool
}

// Storage backend names
const (
	StorageBackendLocal  = "local"
	StorageBackendS3     = "s3"
	StorageBackendMemory = "memory"
)

// Load reads configuration from config file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with UV_ prefix (e.g., UV_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("UV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true need an explicit default so that "unset"
	// and "false" can be told apart.
	v.SetDefault("storage.serve_statics", true)
	v.SetDefault("orphan_sweep.enabled", true)
	v.SetDefault("http.metrics_enabled", true)
	v.SetDefault("http.upload_rate_limit", 30)
	v.SetDefault("http.upload_rate_window", "1m")
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.insecure", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Host:          v.GetString("redis.host"),
			Port:          v.GetInt("redis.port"),
			Password:      v.GetString("redis.password"),
			DB:            v.GetInt("redis.db"),
			UsageCacheTTL: v.GetDuration("redis.usage_cache_ttl"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			Issuer:                v.GetString("jwt.issuer"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			MetricsEnabled:   v.GetBool("http.metrics_enabled"),
			UploadRateLimit:  v.GetInt("http.upload_rate_limit"),
			UploadRateWindow: v.GetDuration("http.upload_rate_window"),
		},
		Storage: StorageConfig{
			Backend:           v.GetString("storage.backend"),
			UploadDir:         v.GetString("storage.upload_dir"),
			AudioDir:          v.GetString("storage.audio_dir"),
			ImageDir:          v.GetString("storage.image_dir"),
			VideoDir:          v.GetString("storage.video_dir"),
			ServeStatics:      v.GetBool("storage.serve_statics"),
			MaxImageSize:      v.GetInt64("storage.max_image_size"),
			MaxAudioSize:      v.GetInt64("storage.max_audio_size"),
			MaxVideoSize:      v.GetInt64("storage.max_video_size"),
			Bucket:            v.GetString("storage.bucket"),
			Region:            v.GetString("storage.region"),
			Endpoint:          v.GetString("storage.endpoint"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
		},
		OrphanSweep: OrphanSweepConfig{
			Enabled:   v.GetBool("orphan_sweep.enabled"),
			Schedule:  v.GetString("orphan_sweep.schedule"),
			Retention: v.GetDuration("orphan_sweep.retention"),
			BatchSize: v.GetInt("orphan_sweep.batch_size"),
			Timeout:   v.GetDuration("orphan_sweep.timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			Insecure:          v.GetBool("telemetry.insecure"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTracing:         v.GetBool("telemetry.db_tracing"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "uv-media"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "uv"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "uv-backend"
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 60 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "Accept", "Origin"}
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageBackendLocal
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "./uploads"
	}
	if cfg.Storage.AudioDir == "" {
		cfg.Storage.AudioDir = "./uploads/audio"
	}
	if cfg.Storage.ImageDir == "" {
		cfg.Storage.ImageDir = "./uploads/images"
	}
	if cfg.Storage.VideoDir == "" {
		cfg.Storage.VideoDir = "./uploads/videos"
	}
	if cfg.Storage.MaxImageSize == 0 {
		cfg.Storage.MaxImageSize = 10 << 20
	}
	if cfg.Storage.MaxAudioSize == 0 {
		cfg.Storage.MaxAudioSize = 500 << 20
	}
	if cfg.Storage.MaxVideoSize == 0 {
		cfg.Storage.MaxVideoSize = 1 << 30
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = time.Hour
	}

	// The body limit must leave room for the largest upload plus multipart framing
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = cfg.Storage.MaxUploadSize() + 1<<20
	}

	if cfg.OrphanSweep.Schedule == "" {
		cfg.OrphanSweep.Schedule = "@daily"
	}
	if cfg.OrphanSweep.Retention == 0 {
		cfg.OrphanSweep.Retention = 7 * 24 * time.Hour
	}
	if cfg.OrphanSweep.BatchSize == 0 {
		cfg.OrphanSweep.BatchSize = 500
	}
	if cfg.OrphanSweep.Timeout == 0 {
		cfg.OrphanSweep.Timeout = 10 * time.Minute
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Storage.Backend {
	case StorageBackendLocal, StorageBackendMemory:
	case StorageBackendS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the s3 backend")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("storage.access_key and storage.secret_key are required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage.backend must be one of local, s3, memory (got %q)", c.Storage.Backend)
	}

	if c.Storage.MaxImageSize < 0 || c.Storage.MaxAudioSize < 0 || c.Storage.MaxVideoSize < 0 {
		return fmt.Errorf("storage size limits must be positive")
	}
	if c.HTTP.UploadRateLimit < 0 {
		return fmt.Errorf("http.upload_rate_limit must not be negative")
	}
	if c.HTTP.UploadRateLimit > 0 && c.HTTP.UploadRateWindow <= 0 {
		return fmt.Errorf("http.upload_rate_window must be positive when upload_rate_limit is set")
	}
	if c.HTTP.MaxBodySize < c.Storage.MaxUploadSize() {
		return fmt.Errorf("http.max_body_size (%d) is smaller than the largest upload limit (%d)",
			c.HTTP.MaxBodySize, c.Storage.MaxUploadSize())
	}

	if c.OrphanSweep.Retention < time.Hour {
		return fmt.Errorf("orphan_sweep.retention must be at least 1h, got %s", c.OrphanSweep.Retention)
	}
	if c.OrphanSweep.BatchSize <= 0 {
		return fmt.Errorf("orphan_sweep.batch_size must be positive")
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %v", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Storage.Backend == StorageBackendMemory {
			return fmt.Errorf("storage.backend=memory is not allowed in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// MaxUploadSize returns the largest per-category limit
func (s StorageConfig) MaxUploadSize() int64 {
	largest := s.MaxImageSize
	if s.MaxAudioSize > largest {
		largest = s.MaxAudioSize
	}
	if s.MaxVideoSize > largest {
		largest = s.MaxVideoSize
	}
	return largest
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
