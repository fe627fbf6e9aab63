package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Источник данных для сборщика отчетов
const (
	SourcePostgres  = "postgres"
	SourcePostgREST = "postgrest"
)

// Config конфигурация сервиса
type Config struct {
	ServerAddress string
	PostgresConn  string
	RunMigrations bool

	DataSource string
	Supabase   struct {
		URL     string
		AnonKey string
	}

	JWTSecret   string
	CORSOrigins []string

	Report struct {
		PhotoLimit int
		EscapeHTML bool
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	// .env необязателен: в контейнере переменные приходят из окружения
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.ServerAddress = getEnv("SERVER_ADDRESS", "0.0.0.0:8080")
	cfg.PostgresConn = getEnv("POSTGRES_CONN", "")
	cfg.RunMigrations = getEnvBool("RUN_MIGRATIONS", true)

	cfg.DataSource = strings.ToLower(getEnv("DATA_SOURCE", SourcePostgres))
	cfg.Supabase.URL = strings.TrimRight(getEnv("SUPABASE_URL", ""), "/")
	cfg.Supabase.AnonKey = getEnv("SUPABASE_ANON_KEY", "")

	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"))

	cfg.Report.PhotoLimit = getEnvInt("REPORT_PHOTO_LIMIT", 9)
	cfg.Report.EscapeHTML = getEnvBool("REPORT_ESCAPE_HTML", false)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные параметры для выбранного источника данных
func (c *Config) Validate() error {
	switch c.DataSource {
	case SourcePostgres:
		if c.PostgresConn == "" {
			return fmt.Errorf("POSTGRES_CONN env variable is not set")
		}
	case SourcePostgREST:
		if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required for DATA_SOURCE=%s", SourcePostgREST)
		}
		if c.PostgresConn == "" {
			return fmt.Errorf("POSTGRES_CONN env variable is not set (reports are persisted in postgres)")
		}
	default:
		return fmt.Errorf("unknown DATA_SOURCE %q", c.DataSource)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET env variable is not set")
	}
	if c.Report.PhotoLimit <= 0 {
		return fmt.Errorf("REPORT_PHOTO_LIMIT must be positive, got %d", c.Report.PhotoLimit)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
