package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	Vercel   VercelConfig
	Deploy   DeployConfig
	AI       AIConfig
	Storage  StorageConfig
	Credits  CreditsConfig
	Worker   WorkerConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	// DSN is used by the pgx pool. When empty it is derived from the fields above.
	DSN string
	// AutoMigrate applies pending migrations when the API starts.
	AutoMigrate bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FirebaseConfig struct {
	CredentialsPath string
	// DevAuth trusts the X-User-Id header instead of verifying ID tokens.
	DevAuth bool
}

type VercelConfig struct {
	Token        string
	TeamID       string
	BaseURL      string
	ParentDomain string
	// RequestsPerSecond throttles calls to the Vercel API across all deploys.
	RequestsPerSecond float64
}

type DeployConfig struct {
	PollAttempts     int
	PollInterval     time.Duration
	FallbackSuffixes []string
}

type AIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Bucket          string
	PublicBaseURL   string
}

type CreditsConfig struct {
	SignupGrant    int
	GenerationCost int
	MinRequired    int
}

type WorkerConfig struct {
	CleanupSchedule string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

var defaultFallbackSuffixes = []string{"site", "page", "app", "web", "live", "hq", "online", "studio"}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", ""),
			Name:        getEnv("DB_NAME", "sitecraft"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			DSN:         getEnv("DB_DSN", ""),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			DevAuth:         getEnvAsBool("AUTH_DEV_MODE", false),
		},
		Vercel: VercelConfig{
			Token:             getEnv("VERCEL_TOKEN", ""),
			TeamID:            getEnv("VERCEL_TEAM_ID", ""),
			BaseURL:           getEnv("VERCEL_API_URL", "https://api.vercel.com"),
			ParentDomain:      strings.ToLower(strings.Trim(strings.TrimSpace(getEnv("DEPLOY_PARENT_DOMAIN", "")), ".")),
			RequestsPerSecond: getEnvAsFloat("VERCEL_RPS", 5),
		},
		Deploy: DeployConfig{
			PollAttempts:     getEnvAsInt("DEPLOY_POLL_ATTEMPTS", 30),
			PollInterval:     getEnvAsDuration("DEPLOY_POLL_INTERVAL", 2*time.Second),
			FallbackSuffixes: getEnvAsList("DEPLOY_FALLBACK_SUFFIXES", defaultFallbackSuffixes),
		},
		AI: AIConfig{
			BaseURL: getEnv("AI_SERVICE_URL", "http://localhost:8000"),
			APIKey:  getEnv("AI_SERVICE_API_KEY", ""),
			Timeout: getEnvAsDuration("AI_SERVICE_TIMEOUT", 90*time.Second),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", ""),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", ""),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", true),
			Bucket:          getEnv("STORAGE_BUCKET", "page-assets"),
			PublicBaseURL:   getEnv("STORAGE_PUBLIC_URL", ""),
		},
		Credits: CreditsConfig{
			SignupGrant:    getEnvAsInt("CREDITS_SIGNUP_GRANT", 5),
			GenerationCost: getEnvAsInt("CREDITS_GENERATION_COST", 1),
			MinRequired:    getEnvAsInt("CREDITS_MIN_REQUIRED", 1),
		},
		Worker: WorkerConfig{
			CleanupSchedule: getEnv("CLEANUP_SCHEDULE", "0 */15 * * * *"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" && c.Database.DSN == "" {
		return fmt.Errorf("DB_HOST or DB_DSN is required")
	}

	if c.Vercel.ParentDomain == "" {
		return fmt.Errorf("DEPLOY_PARENT_DOMAIN is required")
	}

	if c.App.Environment == "production" {
		if c.Vercel.Token == "" {
			return fmt.Errorf("VERCEL_TOKEN is required in production")
		}
		if c.Firebase.DevAuth {
			return fmt.Errorf("AUTH_DEV_MODE must be disabled in production")
		}
	}

	if c.Deploy.PollAttempts < 1 {
		return fmt.Errorf("DEPLOY_POLL_ATTEMPTS must be at least 1")
	}

	if c.Credits.GenerationCost < 0 || c.Credits.MinRequired < c.Credits.GenerationCost {
		return fmt.Errorf("CREDITS_MIN_REQUIRED must be >= CREDITS_GENERATION_COST >= 0")
	}

	return nil
}

// Budget is the longest a deploy may spend polling the provider.
func (d DeployConfig) Budget() time.Duration {
	return time.Duration(d.PollAttempts) * d.PollInterval
}

// PostgresDSN returns the pgx connection string.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Msgf("invalid integer, using default %v", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Msgf("invalid number, using default %v", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Msgf("invalid boolean, using default %v", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Msgf("invalid duration, using default %v", defaultValue)
		return defaultValue
	}

	return value
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return append([]string(nil), defaultValue...)
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
