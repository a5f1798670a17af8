package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	UploadDir       string
	GeminiAPIKey    string
	LLMModel        string
	BackoffDelays   []time.Duration
	DatabaseURL     string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of a local .env for dev convenience.
	_ = godotenv.Load()

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "*")),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		LLMModel:        getEnv("LLM_MODEL", "gemini-2.5-flash"),
		BackoffDelays:   parseDelays(getEnv("BACKOFF_DELAYS", "")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseDelays parses a comma-separated duration list. An empty or invalid
// value yields nil, which callers treat as "use the built-in schedule".
func parseDelays(raw string) []time.Duration {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []time.Duration
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		d, err := time.ParseDuration(trimmed)
		if err != nil || d < 0 {
			log.Printf("invalid BACKOFF_DELAYS entry %q, using default schedule", trimmed)
			return nil
		}
		out = append(out, d)
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
