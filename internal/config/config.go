package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Cache     CacheConfig     `json:"cache"`
	RabbitMQ  RabbitMQConfig  `json:"rabbitmq"`
	Auth      AuthConfig      `json:"auth"`
	Scheduler SchedulerConfig `json:"scheduler"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logger    LoggerConfig    `json:"logger"`
	Analytics AnalyticsConfig `json:"analytics"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port         int    `json:"port"`
	Host         string `json:"host"`
	Environment  string `json:"environment"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
}

// DatabaseConfig represents MongoDB configuration
type DatabaseConfig struct {
	URI            string `json:"uri"`
	Database       string `json:"database"`
	MaxPoolSize    int    `json:"max_pool_size"`
	MinPoolSize    int    `json:"min_pool_size"`
	MaxIdleTime    int    `json:"max_idle_time"`
	ConnectTimeout int    `json:"connect_timeout"`
	SocketTimeout  int    `json:"socket_timeout"`
	ReplicaSet     string `json:"replica_set"`
}

// CacheConfig represents Redis cache configuration
type CacheConfig struct {
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	Password           string        `json:"password"`
	DB                 int           `json:"db"`
	MaxRetries         int           `json:"max_retries"`
	PoolSize           int           `json:"pool_size"`
	MinIdleConnections int           `json:"min_idle_connections"`
	DialTimeout        time.Duration `json:"dial_timeout"`
	ReadTimeout        time.Duration `json:"read_timeout"`
	WriteTimeout       time.Duration `json:"write_timeout"`

	// TTL settings
	AnalysisTTL time.Duration `json:"analysis_ttl"`
}

// RabbitMQConfig represents RabbitMQ configuration
type RabbitMQConfig struct {
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	VHost    string `json:"vhost"`

	AlertExchange   string `json:"alert_exchange"`
	AlertRoutingKey string `json:"alert_routing_key"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	JWTSecret   string `json:"jwt_secret"`
	RequireAuth bool   `json:"require_auth"`
}

// SchedulerConfig represents scheduled job configuration
type SchedulerConfig struct {
	Enabled          bool   `json:"enabled"`
	BatchSchedule    string `json:"batch_schedule"`
	CleanupSchedule  string `json:"cleanup_schedule"`
	TimeZone         string `json:"timezone"`
	RetentionDays    int    `json:"retention_days"`
}

// RateLimitConfig represents rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	RequestsPerMin  int           `json:"requests_per_minute"`
	BurstSize       int           `json:"burst_size"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// LoggerConfig represents logging configuration
type LoggerConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	Output     string `json:"output"`
	Filename   string `json:"filename"`
	MaxSize    int    `json:"max_size"`
	MaxAge     int    `json:"max_age"`
	MaxBackups int    `json:"max_backups"`
	Compress   bool   `json:"compress"`
}

// AnalyticsConfig represents analysis engine configuration
type AnalyticsConfig struct {
	// Annualized risk-free rate used for Sharpe and alpha, as a fraction
	RiskFreeRate float64 `json:"risk_free_rate"`

	// Number of top holdings stored per snapshot
	TopHoldingsLimit int `json:"top_holdings_limit"`

	// Concurrent portfolio analyses in a batch run
	BatchWorkers int `json:"batch_workers"`

	// Per-portfolio analysis deadline
	AnalysisTimeout time.Duration `json:"analysis_timeout"`

	// Benchmark used when the portfolio does not name one
	DefaultBenchmark string `json:"default_benchmark"`
}

// Load loads configuration from environment variables
func Load() *Config {
	// Load .env file if exists
	godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8085),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 30),
		},

		Database: DatabaseConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "portfolio_analytics"),
			MaxPoolSize:    getEnvInt("MONGODB_MAX_POOL_SIZE", 100),
			MinPoolSize:    getEnvInt("MONGODB_MIN_POOL_SIZE", 5),
			MaxIdleTime:    getEnvInt("MONGODB_MAX_IDLE_TIME", 300),
			ConnectTimeout: getEnvInt("MONGODB_CONNECT_TIMEOUT", 10),
			SocketTimeout:  getEnvInt("MONGODB_SOCKET_TIMEOUT", 30),
			ReplicaSet:     getEnv("MONGODB_REPLICA_SET", ""),
		},

		Cache: CacheConfig{
			Host:               getEnv("REDIS_HOST", "localhost"),
			Port:               getEnvInt("REDIS_PORT", 6379),
			Password:           getEnv("REDIS_PASSWORD", ""),
			DB:                 getEnvInt("REDIS_DB", 0),
			MaxRetries:         getEnvInt("REDIS_MAX_RETRIES", 3),
			PoolSize:           getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConnections: getEnvInt("REDIS_MIN_IDLE_CONNECTIONS", 5),
			DialTimeout:        getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:        getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:       getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			AnalysisTTL:        getEnvDuration("CACHE_ANALYSIS_TTL", time.Hour),
		},

		RabbitMQ: RabbitMQConfig{
			Enabled:         getEnvBool("RABBITMQ_ENABLED", true),
			URL:             getEnv("RABBITMQ_URL", ""),
			Host:            getEnv("RABBITMQ_HOST", "localhost"),
			Port:            getEnvInt("RABBITMQ_PORT", 5672),
			Username:        getEnv("RABBITMQ_USERNAME", "guest"),
			Password:        getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:           getEnv("RABBITMQ_VHOST", "/"),
			AlertExchange:   getEnv("RABBITMQ_ALERT_EXCHANGE", "portfolio.alerts"),
			AlertRoutingKey: getEnv("RABBITMQ_ALERT_ROUTING_KEY", "alert.created"),
		},

		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", "default-secret-key"),
			RequireAuth: getEnvBool("REQUIRE_AUTH", true),
		},

		Scheduler: SchedulerConfig{
			Enabled:         getEnvBool("SCHEDULER_ENABLED", true),
			BatchSchedule:   getEnv("SCHEDULER_BATCH_SCHEDULE", "0 1 * * *"),   // Daily at 1 AM
			CleanupSchedule: getEnv("SCHEDULER_CLEANUP_SCHEDULE", "0 3 * * 0"), // Weekly on Sunday
			TimeZone:        getEnv("SCHEDULER_TIMEZONE", "UTC"),
			RetentionDays:   getEnvInt("SCHEDULER_RETENTION_DAYS", 730),
		},

		RateLimit: RateLimitConfig{
			Enabled:         getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin:  getEnvInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 100),
			BurstSize:       getEnvInt("RATE_LIMIT_BURST_SIZE", 10),
			CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 10*time.Minute),
		},

		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			Filename:   getEnv("LOG_FILENAME", ""),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},

		Analytics: AnalyticsConfig{
			RiskFreeRate:     getEnvFloat("ANALYTICS_RISK_FREE_RATE", 0.06),
			TopHoldingsLimit: getEnvInt("ANALYTICS_TOP_HOLDINGS_LIMIT", 5),
			BatchWorkers:     getEnvInt("ANALYTICS_BATCH_WORKERS", 5),
			AnalysisTimeout:  getEnvDuration("ANALYTICS_ANALYSIS_TIMEOUT", 30*time.Second),
			DefaultBenchmark: getEnv("ANALYTICS_DEFAULT_BENCHMARK", "NIFTY50"),
		},
	}

	return config
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URI == "" {
		return fmt.Errorf("database URI is required")
	}
	if c.Analytics.RiskFreeRate < 0 || c.Analytics.RiskFreeRate >= 1 {
		return fmt.Errorf("risk-free rate must be a fraction in [0, 1)")
	}
	if c.Analytics.BatchWorkers < 1 {
		return fmt.Errorf("batch workers must be at least 1")
	}
	if c.Analytics.TopHoldingsLimit < 1 {
		return fmt.Errorf("top holdings limit must be at least 1")
	}
	if c.Server.Environment == "production" && c.Auth.JWTSecret == "default-secret-key" {
		return fmt.Errorf("JWT secret must be set in production")
	}

	return nil
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetRabbitMQURL builds the AMQP connection URL
func (c *Config) GetRabbitMQURL() string {
	if c.RabbitMQ.URL != "" {
		return c.RabbitMQ.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		c.RabbitMQ.Username,
		c.RabbitMQ.Password,
		c.RabbitMQ.Host,
		c.RabbitMQ.Port,
		c.RabbitMQ.VHost,
	)
}
