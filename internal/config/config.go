package config

import (
	"errors"  // For validation errors
	"fmt"     // For DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For durations

	"github.com/joho/godotenv"      // For loading .env files
	"github.com/shopspring/decimal" // For the reconcile epsilon
	"github.com/sirupsen/logrus"    // For reporting bad values
)

// Supported database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBDriver   string // mysql or sqlite
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	SQLitePath string // SQLite file, used when DBDriver is sqlite
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address, empty disables caching
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment
	LogLevel   string // logrus level name

	AuthUsername     string // Operator login name
	AuthPasswordHash string // bcrypt hash of the operator password

	ReconcileInterval time.Duration   // Minimum gap between throttled reconciliations
	ReconcileEpsilon  decimal.Decimal // Drift tolerated before a balance is corrected
	RetryAttempts     int             // Storage retry attempts
	RetryBaseDelay    time.Duration   // Delay before the first retry
	QueueSize         int             // Mutation queue buffer
	CacheTTL          time.Duration   // TTL for cached reads
	ShutdownTimeout   time.Duration   // Grace period for in-flight requests and queued jobs
	JWTTTL            time.Duration   // Token lifetime
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),          // Application port
		DBDriver:   getEnv("DB_DRIVER", DriverMySQL),    // Database driver
		DBUser:     os.Getenv("DB_USER"),                // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),            // Database password
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),      // Database host
		DBPort:     getEnv("DB_PORT", "3306"),           // Database port
		DBName:     os.Getenv("DB_NAME"),                // Database name
		SQLitePath: getEnv("SQLITE_PATH", "finance.db"), // SQLite file
		JWTSecret:  os.Getenv("JWT_SECRET"),             // JWT secret key
		RedisAddr:  os.Getenv("REDIS_ADDR"),             // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),             // Redis password
		RedisDB:    getInt("REDIS_DB", 0),               // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true",      // Is production environment
		LogLevel:   getEnv("LOG_LEVEL", "info"),         // Log level

		AuthUsername:     getEnv("AUTH_USERNAME", "admin"), // Operator login name
		AuthPasswordHash: os.Getenv("AUTH_PASSWORD_HASH"),  // bcrypt hash

		ReconcileInterval: getDuration("RECONCILE_INTERVAL", time.Hour),
		ReconcileEpsilon:  getDecimal("RECONCILE_EPSILON", decimal.RequireFromString("0.01")),
		RetryAttempts:     getInt("RETRY_ATTEMPTS", 3),
		RetryBaseDelay:    getDuration("RETRY_BASE_DELAY", 200*time.Millisecond),
		QueueSize:         getInt("QUEUE_SIZE", 64),
		CacheTTL:          getDuration("CACHE_TTL", 60*time.Second),
		ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		JWTTTL:            getDuration("JWT_TTL", 24*time.Hour),
	}
}

// Validate reports settings the server cannot start without
func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case DriverMySQL:
		if c.DBName == "" {
			errs = append(errs, errors.New("DB_NAME is required for mysql"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.AuthPasswordHash == "" {
		errs = append(errs, errors.New("AUTH_PASSWORD_HASH is required"))
	}
	if c.ReconcileEpsilon.IsNegative() {
		errs = append(errs, errors.New("RECONCILE_EPSILON must not be negative"))
	}
	return errors.Join(errs...)
}

// DSN builds the MySQL Data Source Name
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// getEnv returns the variable or fallback when unset
func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("Invalid integer, using default")
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("Invalid duration, using default")
		return fallback
	}
	return d
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("Invalid decimal, using default")
		return fallback
	}
	return d
}
