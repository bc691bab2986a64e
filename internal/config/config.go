package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

// Config is everything the process consumes at startup. Immutable for the
// process lifetime.
type Config struct {
	Port string

	DBDriver string // "postgres" or "sqlite3"
	DBHost   string
	DBPort   string
	DBUser   string
	Password string
	DBName   string
	SSLMode  string
	DBPath   string // sqlite3 only

	MaxQuestions int
	Admins       map[string]bool

	SessionKey   []byte
	QueryTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		DBDriver:     getEnv("DB_DRIVER", "postgres"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "postgres"),
		Password:     getEnv("DB_PASSWORD", "1234"),
		DBName:       getEnv("DB_NAME", "classqa"),
		SSLMode:      getEnv("DB_SSLMODE", "disable"),
		DBPath:       getEnv("DB_PATH", "classqa.db"),
		MaxQuestions: getEnvInt("MAX_QUESTIONS", 10),
		Admins:       parseAdmins(getEnv("ADMINS", "")),
		QueryTimeout: getEnvDuration("QUERY_TIMEOUT", 5*time.Second),
	}

	if key := os.Getenv("SESSION_KEY"); key != "" {
		cfg.SessionKey = []byte(key)
	} else {
		// Fresh key per boot; existing cookies stop validating on restart.
		cfg.SessionKey = securecookie.GenerateRandomKey(32)
	}

	return cfg
}

// DSN builds the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "sqlite3" {
		return c.DBPath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.Password, c.DBName, c.SSLMode,
	)
}

// IsAdmin reports allow-list membership for an identity.
func (c Config) IsAdmin(email string) bool {
	return c.Admins[email]
}

func parseAdmins(raw string) map[string]bool {
	admins := make(map[string]bool)
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			admins[a] = true
		}
	}
	return admins
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
