package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "chaplaincy:changes", cfg.ChangeFeed.Channel)
	assert.Equal(t, 350*time.Millisecond, cfg.ChangeFeed.Debounce)
	assert.Equal(t, "HAP", cfg.Unit)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "15432")
	t.Setenv("CHANGE_FEED_DEBOUNCE_MS", "500")

	cfg := Load()
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 15432, cfg.Database.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.ChangeFeed.Debounce)
}

func TestPortFallbackOnGarbage(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")
	cfg := Load()
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "postgres",
		Password: "secret", Database: "chaplaincy", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=chaplaincy sslmode=disable",
		c.DSN())
}
