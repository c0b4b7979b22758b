package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds environment driven settings for the courseware server.
type Config struct {
	Env            string
	Host           string
	Port           string
	AllowedOrigins []string
	LogLevel       string

	JWTSecret        string
	JWTRefreshSecret string

	Database  DatabaseConfig
	Redis     RedisConfig
	Bunny     BunnyConfig
	Analytics AnalyticsConfig
	Video     VideoConfig
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // seconds
	ConnMaxIdleTime int // seconds
	RunMigrations   bool
}

// RedisConfig contains Redis connection settings shared by the cache and the
// analytics event stream. An empty Addr disables both.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// BunnyConfig contains Bunny CDN configuration.
type BunnyConfig struct {
	Stream  BunnyStreamConfig
	Storage BunnyStorageConfig
}

// BunnyStreamConfig contains Bunny Stream API configuration.
type BunnyStreamConfig struct {
	LibraryID string
	APIKey    string
	BaseURL   string
}

// BunnyStorageConfig contains Bunny Storage API configuration.
type BunnyStorageConfig struct {
	StorageZone string
	APIKey      string
	BaseURL     string
	CDNURL      string
}

// AnalyticsConfig controls the analytics event stream.
type AnalyticsConfig struct {
	Stream    string
	MaxLength int64
}

// VideoConfig carries defaults for the video component handlers.
type VideoConfig struct {
	DefaultLanguage    string
	DownloadFormat     string
	PlaybackSpeeds     []float64
	CompletionTracking bool
}

// Load builds a Config from environment variables with sensible defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getEnv("COURSEWARE_ENV", "development"),
		Host:             getEnv("COURSEWARE_HOST", "0.0.0.0"),
		Port:             getEnv("COURSEWARE_PORT", "8080"),
		LogLevel:         getEnv("COURSEWARE_LOG_LEVEL", "info"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-me"),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", "your-refresh-secret-change-me"),
	}

	cfg.AllowedOrigins = splitAndTrim(os.Getenv("COURSEWARE_ALLOWED_ORIGINS"))
	cfg.Database = loadDatabaseConfig()
	cfg.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvAsInt("REDIS_DB", 0),
	}
	cfg.Bunny = loadBunnyConfig()
	cfg.Analytics = AnalyticsConfig{
		Stream:    getEnv("ANALYTICS_STREAM", "analytics:events"),
		MaxLength: int64(getEnvAsInt("ANALYTICS_STREAM_MAXLEN", 100000)),
	}
	cfg.Video = VideoConfig{
		DefaultLanguage: getEnv("VIDEO_DEFAULT_LANGUAGE", "en"),
		DownloadFormat:  getEnv("VIDEO_DOWNLOAD_FORMAT", "srt"),
		PlaybackSpeeds:  []float64{0.75, 1.0, 1.25, 1.5},
	}
	cfg.Video.CompletionTracking = getEnvAsBool("VIDEO_COMPLETION_TRACKING", true)

	return cfg, nil
}

// ServerAddress joins the host and port into a listen address.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsProduction reports whether the app is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// DSN builds a PostgreSQL DSN for gorm.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
		d.TimeZone,
	)
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("COURSEWARE_DB_HOST", "127.0.0.1"),
		Port:            getEnv("COURSEWARE_DB_PORT", "5432"),
		User:            getEnv("COURSEWARE_DB_USER", "postgres"),
		Password:        os.Getenv("COURSEWARE_DB_PASSWORD"),
		Name:            getEnv("COURSEWARE_DB_NAME", "courseware"),
		SSLMode:         getEnv("COURSEWARE_DB_SSLMODE", "disable"),
		TimeZone:        getEnv("COURSEWARE_DB_TIMEZONE", "UTC"),
		MaxIdleConns:    getEnvAsInt("COURSEWARE_DB_MAX_IDLE_CONNS", 5),
		MaxOpenConns:    getEnvAsInt("COURSEWARE_DB_MAX_OPEN_CONNS", 20),
		ConnMaxLifetime: getEnvAsInt("COURSEWARE_DB_CONN_MAX_LIFETIME", 1800),
		ConnMaxIdleTime: getEnvAsInt("COURSEWARE_DB_CONN_MAX_IDLE_TIME", 300),
		RunMigrations:   getEnvAsBool("COURSEWARE_DB_RUN_MIGRATIONS", false),
	}
}

func loadBunnyConfig() BunnyConfig {
	return BunnyConfig{
		Stream: BunnyStreamConfig{
			LibraryID: getEnv("BUNNY_STREAM_LIBRARY_ID", ""),
			APIKey:    getEnv("BUNNY_STREAM_API_KEY", ""),
			BaseURL:   getEnv("BUNNY_STREAM_BASE_URL", "https://video.bunnycdn.com"),
		},
		Storage: BunnyStorageConfig{
			StorageZone: getEnv("BUNNY_STORAGE_ZONE", ""),
			APIKey:      getEnv("BUNNY_STORAGE_API_KEY", ""),
			BaseURL:     getEnv("BUNNY_STORAGE_BASE_URL", "https://storage.bunnycdn.com"),
			CDNURL:      getEnv("BUNNY_STORAGE_CDN_URL", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return fallback
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';'
	})

	var cleaned []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	return cleaned
}
