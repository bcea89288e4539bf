package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Queue    QueueConfig
	Storage  StorageConfig
	YouTube  YouTubeConfig
	AI       AIConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
}

// StorageConfig holds object storage configuration for thumbnail mirroring
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
	MirrorEnabled   bool
}

// YouTubeConfig holds upstream metadata API configuration
type YouTubeConfig struct {
	APIKey         string
	BaseURL        string
	DailyQuota     int
	MaxPages       int
	PageSize       int
	BatchSize      int
	RequestDelay   time.Duration
	PlaylistTTL    time.Duration
	ListingTTL     time.Duration
	DetailsTTL     time.Duration
	RequestTimeout time.Duration
}

// AIConfig holds text-generation oracle configuration
type AIConfig struct {
	APIKey         string
	BaseURL        string
	DefaultModel   string
	MaxTokens      int
	Temperature    float64
	RequestTimeout time.Duration
	Cooldown       time.Duration
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	SessionTTL time.Duration
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	JaegerEndpoint string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.readTimeout", "30s")
	viper.SetDefault("server.writeTimeout", "30s")
	viper.SetDefault("server.shutdownTimeout", "10s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "curator")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxConns", 25)
	viper.SetDefault("database.minConns", 5)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Queue defaults
	viper.SetDefault("queue.host", "localhost")
	viper.SetDefault("queue.port", 5672)
	viper.SetDefault("queue.user", "guest")
	viper.SetDefault("queue.password", "guest")
	viper.SetDefault("queue.vhost", "/")

	// Storage defaults
	viper.SetDefault("storage.endpoint", "localhost:9000")
	viper.SetDefault("storage.accessKeyID", "minioadmin")
	viper.SetDefault("storage.secretAccessKey", "minioadmin")
	viper.SetDefault("storage.bucketName", "thumbnails")
	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("storage.useSSL", false)
	viper.SetDefault("storage.mirrorEnabled", false)

	// YouTube defaults
	viper.SetDefault("youtube.baseURL", "https://www.googleapis.com/youtube/v3")
	viper.SetDefault("youtube.dailyQuota", 10000)
	viper.SetDefault("youtube.maxPages", 10)
	viper.SetDefault("youtube.pageSize", 50)
	viper.SetDefault("youtube.batchSize", 50)
	viper.SetDefault("youtube.requestDelay", "200ms")
	viper.SetDefault("youtube.playlistTTL", "30m")
	viper.SetDefault("youtube.listingTTL", "30m")
	viper.SetDefault("youtube.detailsTTL", "1h")
	viper.SetDefault("youtube.requestTimeout", "30s")

	// AI defaults
	viper.SetDefault("ai.baseURL", "https://api.openai.com/v1")
	viper.SetDefault("ai.defaultModel", "gpt-4o-mini")
	viper.SetDefault("ai.maxTokens", 500)
	viper.SetDefault("ai.temperature", 0.7)
	viper.SetDefault("ai.requestTimeout", "60s")
	viper.SetDefault("ai.cooldown", "1h")

	// Auth defaults
	viper.SetDefault("auth.tokenTTL", "24h")
	viper.SetDefault("auth.sessionTTL", "168h")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9091)

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.serviceName", "curator-api")
	viper.SetDefault("tracing.jaegerEndpoint", "http://localhost:14268/api/traces")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}
