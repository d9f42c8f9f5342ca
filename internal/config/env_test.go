package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.PGHost)
	assert.Equal(t, DefaultQueueName, cfg.QueueName)
	assert.Zero(t, cfg.TokenExpiry)
	assert.Equal(t, 20, cfg.HistorianBatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.HistorianFlushDelay)
	assert.Equal(t, 10*time.Minute, cfg.RoundInactivity)
	assert.Equal(t, time.Hour, cfg.SessionIdleTimeout)
	assert.Equal(t, time.Second, cfg.Timing.Tick)
	assert.Equal(t, time.Second, cfg.Timing.MismatchDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Timing.FlipStagger)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"PORT":              "9000",
		"LOG_LEVEL":         "debug",
		"TOKEN_EXPIRE_TIME": "72h",
		"FLIP_STAGGER_MS":   "0",
		"MISMATCH_DELAY_MS": "250",
		"REDIS_ADDR":        "redis:6379",
		"REDIS_DB":          "2",
		"PG_HOST":           "db",
		"POSTGRES_USER":     "u",
		"POSTGRES_PASSWORD": "p",
		"PG_DATABASE":       "pairs",
	})
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 72*time.Hour, cfg.TokenExpiry)
	assert.Zero(t, cfg.Timing.FlipStagger)
	assert.Equal(t, 250*time.Millisecond, cfg.Timing.MismatchDelay)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, "postgres://u:p@db:5432/pairs", cfg.PostgresURL())
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"log level":   {"LOG_LEVEL": "loud"},
		"expiry":      {"TOKEN_EXPIRE_TIME": "soon"},
		"redis db":    {"REDIS_DB": "not-a-number"},
		"zero tick":   {"REVEAL_TICK_MS": "0"},
		"neg stagger": {"FLIP_STAGGER_MS": "-5"},
		"batch size":  {"HISTORIAN_BATCH_SIZE": "0"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(vars)
			assert.Error(t, err)
		})
	}
}

func TestParseExpiry(t *testing.T) {
	for _, s := range []string{"", "0", "never"} {
		d, err := parseExpiry(s)
		require.NoError(t, err)
		assert.Zero(t, d)
	}
	d, err := parseExpiry("90m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)
}
