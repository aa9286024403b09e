package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Session  SessionConfig
	Tracker  TrackerConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	// InstanceID tags cross-instance events; empty picks a random id.
	InstanceID  string
	OtelEnabled bool
}

type DatabaseConfig struct {
	Connection string
}

type SessionConfig struct {
	// Store is "memory" or "redis".
	Store              string
	SlotTTL            time.Duration
	RestoreWaitTimeout time.Duration
}

type TrackerConfig struct {
	BaseURL        string
	Token          string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
}

type AuthConfig struct {
	JwtSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			InstanceID:         getEnv("INSTANCE_ID", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Session: SessionConfig{
			Store:              getEnv("SESSION_STORE", "memory"),
			SlotTTL:            getEnvAsDuration("SESSION_SLOT_TTL", 12*time.Hour),
			RestoreWaitTimeout: getEnvAsDuration("RESTORE_WAIT_TIMEOUT", 10*time.Second),
		},
		Tracker: TrackerConfig{
			BaseURL:        getEnv("TRACKER_BASE_URL", "http://localhost:8080/api"),
			Token:          getEnv("TRACKER_TOKEN", ""),
			RequestTimeout: getEnvAsDuration("TRACKER_REQUEST_TIMEOUT", 15*time.Second),
			CacheTTL:       getEnvAsDuration("CATALOG_CACHE_TTL", 2*time.Minute),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs := getEnvAsInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
