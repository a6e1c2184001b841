package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingSigningSecret means the server cannot issue or verify puzzle
// signatures and must not start.
var ErrMissingSigningSecret = errors.New("PUZZLE_SIGNING_SECRET is not configured")

// Config holds application configuration
type Config struct {
	ServerPort  string
	Environment string

	DatabaseType   string // sqlite, postgres, mysql
	DatabasePath   string // sqlite file path
	DatabaseURL    string // postgres/mysql connection string
	MigrationsPath string

	// PuzzleSigningSecret keys the HMAC over public puzzle fields.
	PuzzleSigningSecret string

	// AdminSecret guards the manual rotation trigger. Distinct from the
	// signing secret.
	AdminSecret string

	OpenAIAPIKey      string
	OpenAIModel       string
	GenerationTimeout time.Duration
	RotationAttempts  int
	HintCount         int
	GenerateImages    bool

	// GameTimezone defines which calendar day a puzzle belongs to.
	GameTimezone string

	AWSRegion      string
	AlertFromEmail string
	AlertToEmail   string

	DailyRotation bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	// Load .env if present; real environment variables take precedence
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	return &Config{
		ServerPort:  getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./figurdle.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		PuzzleSigningSecret: getEnv("PUZZLE_SIGNING_SECRET", ""),
		AdminSecret:         getEnv("ADMIN_SECRET", ""),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 60*time.Second),
		RotationAttempts:  getEnvInt("ROTATION_ATTEMPTS", 3),
		HintCount:         getEnvInt("HINT_COUNT", 5),
		GenerateImages:    getEnvBool("GENERATE_IMAGES", false),

		GameTimezone: getEnv("GAME_TIMEZONE", "America/Los_Angeles"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AlertFromEmail: getEnv("ALERT_FROM_EMAIL", ""),
		AlertToEmail:   getEnv("ALERT_TO_EMAIL", ""),

		DailyRotation: getEnvBool("DAILY_ROTATION", true),
	}
}

// Validate checks configuration that must be present before serving
func (c *Config) Validate() error {
	if c.PuzzleSigningSecret == "" {
		return ErrMissingSigningSecret
	}
	return nil
}

// Location resolves the configured game timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.GameTimezone)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Warning: invalid value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

// getEnvBool reads a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid value for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}

// getEnvDuration reads a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid value for %s, using default %s", key, defaultValue)
	}
	return defaultValue
}
