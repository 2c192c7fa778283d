package config

import (
	"os"
	"time"

	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/retention"
)

type Config struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration

	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DataDir    string
	StorageKey string

	RetentionWindow        time.Duration
	AutoCompleteInterval   time.Duration
	RetentionSweepInterval time.Duration

	SessionSecret string
	SessionStore  string
	RedisHost     string
	RedisPort     string

	OpenAIAPIKey string

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	driver := getEnv("DB_DRIVER", "sqlite")
	return &Config{
		Port:            getEnv("PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", constants.DefaultShutdownTimeout),

		DBDriver:   driver,
		DBPath:     getEnv("DB_PATH", constants.DefaultSQLitePath),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", defaultDBPort(driver)),
		DBUser:     getEnv("DB_USER", "taskuser"),
		DBPassword: getEnv("DB_PASSWORD", "taskpassword"),
		DBName:     getEnv("DB_NAME", "taskflow"),
		DataDir:    getEnv("DATA_DIR", constants.DefaultDataDir),
		StorageKey: getEnv("STORAGE_KEY", constants.DefaultStorageKey),

		RetentionWindow:        getDuration("RETENTION_WINDOW", retention.DefaultWindow),
		AutoCompleteInterval:   getDuration("AUTO_COMPLETE_INTERVAL", constants.DefaultAutoCompleteInterval),
		RetentionSweepInterval: getDuration("RETENTION_SWEEP_INTERVAL", constants.DefaultRetentionSweepInterval),

		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		SessionStore:  getEnv("SESSION_STORE", "cookie"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

func defaultDBPort(driver string) string {
	if driver == "postgres" {
		return "5432"
	}
	return "3306"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getDuration parses a Go duration such as "30s" or "72h". Missing,
// malformed and non-positive values fall back to defaultValue.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
