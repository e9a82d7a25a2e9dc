package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port        string
	CORSOrigins []string

	Log      LogConfig
	DB       DBConfig
	AI       AIConfig
	Supabase SupabaseConfig
}

type LogConfig struct {
	Mode     string
	Level    string
	Redact   bool
	HashSalt string
}

type DBConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
	LogLevel string
	// Path is the SQLite file (":memory:" in tests).
	Path string
}

type AIConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	CardCount   int
	Referer     string
	AppTitle    string
}

type SupabaseConfig struct {
	URL          string
	Key          string
	JWTSecret    string
	ExportBucket string
}

// Load reads the process environment. Call godotenv.Load before it when a .env file is used.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:4321")),
		Log: LogConfig{
			Mode:     getEnv("LOG_MODE", "dev"),
			Level:    os.Getenv("LOG_LEVEL"),
			Redact:   boolEnv("LOG_REDACTION_ENABLED", true),
			HashSalt: os.Getenv("LOG_HASH_SALT"),
		},
		DB: DBConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
			LogLevel: getEnv("DB_LOG_LEVEL", "warn"),
			Path:     getEnv("DB_PATH", "flashcards.db"),
		},
		AI: AIConfig{
			Provider:    strings.ToLower(getEnv("AI_PROVIDER", ProviderOpenRouter)),
			BaseURL:     os.Getenv("AI_BASE_URL"),
			Model:       os.Getenv("AI_MODEL"),
			Temperature: floatEnv("AI_TEMPERATURE", 0.5),
			MaxTokens:   intEnv("AI_MAX_TOKENS", 0),
			Timeout:     time.Duration(intEnv("AI_TIMEOUT_SECONDS", 120)) * time.Second,
			CardCount:   intEnv("FLASHCARD_COUNT", 10),
			Referer:     os.Getenv("AI_HTTP_REFERER"),
			AppTitle:    getEnv("AI_APP_TITLE", "flashcards"),
		},
		Supabase: SupabaseConfig{
			URL:          strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
			Key:          os.Getenv("SUPABASE_KEY"),
			JWTSecret:    os.Getenv("SUPABASE_JWT_SECRET"),
			ExportBucket: getEnv("SUPABASE_EXPORT_BUCKET", "exports"),
		},
	}

	switch cfg.AI.Provider {
	case ProviderOpenRouter:
		cfg.AI.APIKey = os.Getenv("OPENROUTER_API_KEY")
		if cfg.AI.Model == "" {
			cfg.AI.Model = "google/gemma-3-27b-it:free"
		}
	case ProviderGemini:
		cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.AI.Model == "" {
			cfg.AI.Model = "gemini-2.0-flash"
		}
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", cfg.AI.Provider)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.URL == "" && (c.DB.User == "" || c.DB.Name == "") {
			return fmt.Errorf("DATABASE_URL or DB_USER/DB_NAME must be set")
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.AI.CardCount < 1 || c.AI.CardCount > 50 {
		return fmt.Errorf("FLASHCARD_COUNT must be between 1 and 50, got %d", c.AI.CardCount)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("AI_TEMPERATURE must be between 0 and 2, got %v", c.AI.Temperature)
	}
	if c.Supabase.JWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required to verify sessions")
	}
	return nil
}

// PostgresDSN builds the connection string from the discrete DB_* variables unless DATABASE_URL is set.
func (d DBConfig) PostgresDSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone,
	)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func floatEnv(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func boolEnv(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
