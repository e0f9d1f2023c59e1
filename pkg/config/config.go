package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/arnavshah/allocation-api-go/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment
type Config struct {
	Port                string
	GinMode             string
	LogMode             string
	DatabaseURL         string
	DataPath            string
	JWTSecret           string
	APIMasterSecret     string
	AdminUsername       string
	AdminPassword       string
	RedisAddr           string
	DefaultRateLimit    int
	BlockOnHighSeverity bool
	CORSOrigins         []string
	Week                models.Week
}

// LoadDotEnv loads the first .env found in the working directory or its parents
func LoadDotEnv() {
	// Try root and parent directories for flexibility
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads .env (if present) and then the process environment
func Load() (*Config, error) {
	LoadDotEnv()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                str("PORT", "8000"),
		GinMode:             str("GIN_MODE", ""),
		LogMode:             str("LOG_MODE", "dev"),
		DatabaseURL:         str("DATABASE_URL", ""),
		DataPath:            str("DATA_PATH", "allocation.db"),
		JWTSecret:           str("JWT_SECRET", ""),
		APIMasterSecret:     str("API_MASTER_SECRET", ""),
		AdminUsername:       str("ADMIN_USERNAME", "admin"),
		AdminPassword:       str("ADMIN_PASSWORD", "admin123"),
		RedisAddr:           str("REDIS_ADDR", ""),
		DefaultRateLimit:    intVal("DEFAULT_RATE_LIMIT", 10000),
		BlockOnHighSeverity: boolVal("BLOCK_ON_HIGH_SEVERITY", true),
		CORSOrigins:         list("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	days := intVal("PLANNING_WEEK_DAYS", 5)
	week, err := models.WeekOf(days)
	if err != nil {
		return nil, fmt.Errorf("PLANNING_WEEK_DAYS: %w", err)
	}
	cfg.Week = week

	if err := cfg.checkSecrets(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkSecrets refuses to run with empty signing secrets unless gin runs in debug or test mode.
// An empty secret lets anyone sign API keys or admin tokens.
func (c *Config) checkSecrets() error {
	if c.GinMode == gin.DebugMode || c.GinMode == gin.TestMode {
		return nil
	}
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.APIMasterSecret == "" {
		missing = append(missing, "API_MASTER_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s must be set (or GIN_MODE=debug for local development)", strings.Join(missing, " and "))
	}
	return nil
}

func str(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func intVal(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func boolVal(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func list(name string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
