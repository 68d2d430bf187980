package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	defaultAPIURL       = "http://localhost:8080"
	defaultFixtureAddr  = ":8080"
	defaultFetchTimeout = 15 * time.Second
	defaultTokenTTL     = 24 * time.Hour
)

// Config is read from WAFCONSOLE_* environment variables; command flags override it.
type Config struct {
	APIURL       string
	Token        string
	DBPath       string // non-empty switches the console to the local SQLite store
	LogPath      string
	LogLevel     log.Level
	FetchTimeout time.Duration

	FixtureAddr string
	JWTSecret   string
	TokenTTL    time.Duration
	GinMode     string

	// console login against the API, and the fixture server's only account
	User     string
	Password string
}

// Load reads .env files (silently ignored when missing) and then the environment
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

// FromEnv reads the process environment only
func FromEnv() Config {
	return Config{
		APIURL:       strings.TrimRight(envString("WAFCONSOLE_API_URL", defaultAPIURL), "/"),
		Token:        envString("WAFCONSOLE_TOKEN", ""),
		DBPath:       envString("WAFCONSOLE_DB", ""),
		LogPath:      envString("WAFCONSOLE_LOG", ""),
		LogLevel:     envLevel("WAFCONSOLE_LOG_LEVEL", log.InfoLevel),
		FetchTimeout: envDuration("WAFCONSOLE_FETCH_TIMEOUT", defaultFetchTimeout),
		FixtureAddr:  envString("WAFCONSOLE_FIXTURE_ADDR", defaultFixtureAddr),
		JWTSecret:    envString("WAFCONSOLE_JWT_SECRET", ""),
		TokenTTL:     envDuration("WAFCONSOLE_TOKEN_TTL", defaultTokenTTL),
		GinMode:      envString("GIN_MODE", ""),
		User:         envString("WAFCONSOLE_USER", ""),
		Password:     os.Getenv("WAFCONSOLE_PASSWORD"),
	}
}

func envString(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// envDuration accepts Go durations ("30s") or plain seconds ("30")
func envDuration(key string, fallback time.Duration) time.Duration {
	v := envString(key, "")
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envLevel(key string, fallback log.Level) log.Level {
	v := envString(key, "")
	if v == "" {
		return fallback
	}
	level, err := log.ParseLevel(v)
	if err != nil {
		return fallback
	}
	return level
}
