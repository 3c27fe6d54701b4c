package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Analysis  AnalysisConfig
	Artifacts ArtifactConfig
	Redis     RedisConfig
	Logger    LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// AnalysisConfig holds completion-endpoint and per-run pipeline settings.
type AnalysisConfig struct {
	APIURL           string
	APIKey           string
	Model            string
	MaxTokens        int
	Temperature      float64
	TimeoutSeconds   int
	MockMode         bool
	DebugLogging     bool
	LogFile          string
	TruncateLogOnRun bool
}

// ArtifactConfig controls where analysis artifacts are stored and for how long.
type ArtifactConfig struct {
	Dir                    string
	TTLMinutes             int
	JanitorIntervalSeconds int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	temperature, err := strconv.ParseFloat(getEnv("ANALYSIS_TEMPERATURE", "0.1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_TEMPERATURE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "vuln-analysis-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 330),
		},
		Analysis: AnalysisConfig{
			APIURL:           os.Getenv("ANALYSIS_API_URL"),
			APIKey:           os.Getenv("ANALYSIS_API_KEY"),
			Model:            getEnv("ANALYSIS_MODEL", "claude-sonnet-4"),
			MaxTokens:        getEnvAsInt("ANALYSIS_MAX_TOKENS", 4000),
			Temperature:      temperature,
			TimeoutSeconds:   getEnvAsInt("ANALYSIS_TIMEOUT_SECONDS", 300),
			MockMode:         getEnvAsBool("ANALYSIS_MOCK_MODE", false),
			DebugLogging:     getEnvAsBool("ANALYSIS_DEBUG_LOGGING", false),
			LogFile:          getEnv("ANALYSIS_LOG_FILE", "analysis_debug.log"),
			TruncateLogOnRun: getEnvAsBool("ANALYSIS_TRUNCATE_LOG_ON_RUN", false),
		},
		Artifacts: ArtifactConfig{
			Dir:                    getEnv("ARTIFACT_DIR", os.TempDir()),
			TTLMinutes:             getEnvAsInt("ARTIFACT_TTL_MINUTES", 1440),
			JanitorIntervalSeconds: getEnvAsInt("ARTIFACT_JANITOR_INTERVAL_SECONDS", 300),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Validate checks the analysis settings. The endpoint and key may only be
// absent when mock mode is enabled.
func (a AnalysisConfig) Validate() error {
	if a.MockMode {
		return nil
	}
	if a.APIURL == "" {
		return fmt.Errorf("ANALYSIS_API_URL is required unless mock mode is enabled")
	}
	if a.APIKey == "" {
		return fmt.Errorf("ANALYSIS_API_KEY is required unless mock mode is enabled")
	}
	return nil
}

// Timeout returns the completion call deadline.
func (a AnalysisConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// TTL returns the artifact retention duration.
func (a ArtifactConfig) TTL() time.Duration {
	if a.TTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.TTLMinutes) * time.Minute
}

// JanitorInterval returns how often expired artifacts are swept.
func (a ArtifactConfig) JanitorInterval() time.Duration {
	if a.JanitorIntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.JanitorIntervalSeconds) * time.Second
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
