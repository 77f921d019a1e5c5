package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultBaseURL is the API root baked into the build. Override at link time:
//
//	go build -ldflags "-X attendclient/internal/config.DefaultBaseURL=https://api.example.edu"
var DefaultBaseURL = "http://localhost:5000"

// Client holds configuration for the attendance API client and the attendctl CLI.
type Client struct {
	BaseURL      string
	Timeout      time.Duration
	LoginTimeout time.Duration
	TokenBackend string // file, redis or memory
	TokenFile    string
	RedisAddr    string
	MetricsDump  bool
	Debug        bool
}

// Backend holds runtime configuration for the reference attendance service.
type Backend struct {
	Env             string
	HTTPPort        string
	DatabaseURL     string
	RedisAddr       string
	JWTSigningKey   string
	TokenTTL        time.Duration
	ResetTTL        time.Duration
	LateAfter       time.Duration
	DetainedBelow   float64
	QueueBackend    string
	RateLimitPerMin int
}

// LoadClient returns client config populated from environment variables with sensible defaults.
func LoadClient() Client {
	loadDotEnv()
	return Client{
		BaseURL:      strings.TrimRight(getEnv("ATTEND_API_URL", DefaultBaseURL), "/"),
		Timeout:      durationEnv("ATTEND_TIMEOUT", 20*time.Second),
		LoginTimeout: durationEnv("ATTEND_LOGIN_TIMEOUT", 10*time.Second),
		TokenBackend: getEnv("ATTEND_TOKEN_BACKEND", "file"),
		TokenFile:    getEnv("ATTEND_TOKEN_FILE", defaultTokenFile()),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		MetricsDump:  boolEnv("ATTEND_METRICS_DUMP", false),
		Debug:        boolEnv("ATTEND_DEBUG", false),
	}
}

// LoadBackend returns backend config populated from environment variables with sensible defaults.
func LoadBackend() Backend {
	loadDotEnv()
	return Backend{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "5000"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		TokenTTL:        durationEnv("TOKEN_TTL", 24*time.Hour),
		ResetTTL:        durationEnv("RESET_TTL", time.Hour),
		LateAfter:       durationEnv("LATE_AFTER", 10*time.Minute),
		DetainedBelow:   floatEnv("DETAINED_BELOW", 75),
		QueueBackend:    getEnv("QUEUE_BACKEND", "memory"),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 60),
	}
}

// loadDotEnv reads a .env file from the working directory when one exists.
// Variables already set in the environment win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("could not load .env: %v", err)
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".attendclient-session.json"
	}
	return dir + string(os.PathSeparator) + "attendclient" + string(os.PathSeparator) + "session.json"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

func floatEnv(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		var parsed float64
		if _, err := fmt.Sscanf(val, "%g", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid float for %s, using fallback %g", key, fallback)
	}
	return fallback
}
