package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret    string
	JWTExpiresIn time.Duration

	// Auth
	VerifyPasswords bool

	// LLM
	LLMProvider       string
	LLMConcurrentReqs int
	LLMMaxAttempts    int
	LLMInitialBackoff time.Duration
	LLMRequestTimeout time.Duration
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	AnthropicAPIKey   string
	AnthropicModel    string

	// Leaderboard cache
	LeaderboardCacheTTL time.Duration

	// Rate limits (requests per minute per IP)
	AuthRateLimit int
	AIRateLimit   int

	// CORS
	AllowedOrigins []string

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Notifications
	NotificationsEnabled bool
	ResultEmailSubject   string
	NotificationWorkers  int

	// Tracing
	OTelEnabled     bool
	OTelEndpoint    string
	OTelInsecure    bool
	OTelSampleRatio float64

	// Logging
	LogLevel string
	LogFile  string

	// Quiz rules
	Quiz QuizSettings
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          mustGetEnv("DATABASE_URL"),
		MigrationsDir:        getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:             mustGetEnv("REDIS_URL"),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		JWTExpiresIn:         getEnvAsDurationOrDefault("JWT_EXPIRES_IN", time.Hour),
		VerifyPasswords:      getEnvAsBoolOrDefault("AUTH_VERIFY_PASSWORD", false),
		LLMProvider:          strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "gemini")),
		LLMConcurrentReqs:    getEnvAsIntOrDefault("LLM_CONCURRENT_REQUESTS", 5),
		LLMMaxAttempts:       getEnvAsIntOrDefault("LLM_MAX_ATTEMPTS", 3),
		LLMInitialBackoff:    getEnvAsDurationOrDefault("LLM_INITIAL_BACKOFF", time.Second),
		LLMRequestTimeout:    getEnvAsDurationOrDefault("LLM_REQUEST_TIMEOUT", 60*time.Second),
		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:         getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:        getEnvOrDefault("OPENAI_BASE_URL", ""),
		AnthropicAPIKey:      getEnvOrDefault("ANTHROPIC_API_KEY", ""),
		AnthropicModel:       getEnvOrDefault("ANTHROPIC_MODEL", "claude-haiku"),
		LeaderboardCacheTTL:  getEnvAsDurationOrDefault("LEADERBOARD_CACHE_TTL", time.Minute),
		AuthRateLimit:        getEnvAsIntOrDefault("RATE_LIMIT_AUTH_PER_MIN", 10),
		AIRateLimit:          getEnvAsIntOrDefault("RATE_LIMIT_AI_PER_MIN", 30),
		AllowedOrigins:       getEnvAsListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		SMTPHost:             getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:             getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:             getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:             getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:             getEnvOrDefault("SMTP_FROM", "noreply@aiquizzer.app"),
		NotificationsEnabled: getEnvAsBoolOrDefault("EMAIL_NOTIFICATIONS_ENABLED", true),
		ResultEmailSubject:   getEnvOrDefault("RESULT_EMAIL_SUBJECT", "Your AI Quizzer Results Are Ready!"),
		NotificationWorkers:  getEnvAsIntOrDefault("NOTIFICATION_WORKERS", 2),
		OTelEnabled:          getEnvAsBoolOrDefault("OTEL_ENABLED", false),
		OTelEndpoint:         getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelInsecure:         getEnvAsBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
		OTelSampleRatio:      clampRatio(getEnvAsFloatOrDefault("OTEL_SAMPLER_RATIO", 0.1)),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:              getEnvOrDefault("LOG_FILE", ""),
		Quiz:                 loadQuizSettings(),
	}

	return cfg
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the selected LLM provider has credentials.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.LLMMaxAttempts < 1 {
		return fmt.Errorf("LLM_MAX_ATTEMPTS must be at least 1")
	}
	if c.Quiz.LowThreshold >= c.Quiz.HighThreshold {
		return fmt.Errorf("DIFFICULTY_LOW_THRESHOLD must be below DIFFICULTY_HIGH_THRESHOLD")
	}
	return nil
}

func clampRatio(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvAsDurationOrDefault accepts Go durations ("90s") and bare seconds ("3600").
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
