package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.Equal(t, 100, cfg.MaxSessions)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL())
	assert.Equal(t, 30*time.Second, cfg.KeepAlive())
	assert.Equal(t, 5*time.Second, cfg.TurnDeadline())
	assert.Equal(t, 60, cfg.TurnsPerMinute)
	assert.Equal(t, 10, cfg.TurnBurst)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "La Maison", cfg.RestaurantName)
	assert.Empty(t, cfg.ClosedDays)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TIMEOUT", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CLOSED_DAYS", "Monday,Tuesday")
	t.Setenv("SEATS_PER_SLOT", "12")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"Monday", "Tuesday"}, cfg.ClosedDays)
	assert.Equal(t, 12, cfg.SeatsPerSlot)
}

func TestLoadConfigInvalid(t *testing.T) {
	for key, value := range map[string]string{
		"PORT":           "not-a-number",
		"MAX_SESSIONS":   "0",
		"TURN_TIMEOUT":   "-1",
		"SEATS_PER_SLOT": "0",
		"TURN_BURST":     "0",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
