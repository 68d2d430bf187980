package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/assert/v2"
)

// TestFromEnvDefaults applies defaults for unset variables
func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"WAFCONSOLE_API_URL", "WAFCONSOLE_TOKEN", "WAFCONSOLE_DB", "WAFCONSOLE_LOG",
		"WAFCONSOLE_LOG_LEVEL", "WAFCONSOLE_FETCH_TIMEOUT", "WAFCONSOLE_FIXTURE_ADDR",
		"WAFCONSOLE_JWT_SECRET", "WAFCONSOLE_TOKEN_TTL",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, cfg.APIURL, defaultAPIURL)
	assert.Equal(t, cfg.FetchTimeout, defaultFetchTimeout)
	assert.Equal(t, cfg.LogLevel, log.InfoLevel)
	assert.Equal(t, cfg.FixtureAddr, defaultFixtureAddr)
	assert.Equal(t, cfg.TokenTTL, defaultTokenTTL)
	assert.Equal(t, cfg.DBPath, "")
}

// TestFromEnvOverrides reads every variable
func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("WAFCONSOLE_API_URL", "https://waf.example.com/")
	t.Setenv("WAFCONSOLE_TOKEN", "secret-token")
	t.Setenv("WAFCONSOLE_LOG_LEVEL", "debug")
	t.Setenv("WAFCONSOLE_FETCH_TIMEOUT", "3s")
	t.Setenv("WAFCONSOLE_TOKEN_TTL", "60")

	cfg := FromEnv()
	assert.Equal(t, cfg.APIURL, "https://waf.example.com")
	assert.Equal(t, cfg.Token, "secret-token")
	assert.Equal(t, cfg.LogLevel, log.DebugLevel)
	assert.Equal(t, cfg.FetchTimeout, 3*time.Second)
	assert.Equal(t, cfg.TokenTTL, time.Minute)
}

// TestFromEnvCredentials keeps the password untrimmed
func TestFromEnvCredentials(t *testing.T) {
	t.Setenv("WAFCONSOLE_USER", " admin ")
	t.Setenv("WAFCONSOLE_PASSWORD", " pass word ")

	cfg := FromEnv()
	assert.Equal(t, cfg.User, "admin")
	assert.Equal(t, cfg.Password, " pass word ")
}

// TestFromEnvBadValues falls back instead of failing
func TestFromEnvBadValues(t *testing.T) {
	t.Setenv("WAFCONSOLE_LOG_LEVEL", "chatty")
	t.Setenv("WAFCONSOLE_FETCH_TIMEOUT", "soon")

	cfg := FromEnv()
	assert.Equal(t, cfg.LogLevel, log.InfoLevel)
	assert.Equal(t, cfg.FetchTimeout, defaultFetchTimeout)
}

// TestLoadDotEnv reads a .env file without overriding the environment
func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "WAFCONSOLE_DB=/tmp/waf.db\nWAFCONSOLE_TOKEN=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv("WAFCONSOLE_TOKEN", "from-env")
	t.Setenv("WAFCONSOLE_DB", "")
	os.Unsetenv("WAFCONSOLE_DB")

	cfg := Load(path)
	assert.Equal(t, cfg.DBPath, "/tmp/waf.db")
	assert.Equal(t, cfg.Token, "from-env")
}
