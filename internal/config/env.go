// internal/config/env.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jason-s-yu/memorymatch/internal/game"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list holding session action logs.
const DefaultQueueName = "memorymatch_actions"

// Config is the process configuration, read from the environment.
// Entrypoints load a .env file first through godotenv.
type Config struct {
	Port     string
	LogLevel logrus.Level

	RedisAddr string // empty disables the action queue
	RedisDB   int
	QueueName string

	PGUser     string
	PGPassword string
	PGHost     string // empty disables round persistence
	PGPort     string
	PGDatabase string

	TokenExpiry        time.Duration // 0 means tokens never expire
	AuthPrivateKeyPath string        // both paths empty: generate a key pair at startup
	AuthPublicKeyPath  string

	HistorianBatchSize  int
	HistorianFlushDelay time.Duration
	RoundInactivity     time.Duration
	SessionIdleTimeout  time.Duration

	Timing game.Timing
}

// rawEnv holds the variables as they appear in the environment.
type rawEnv struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	QueueName string `env:"HISTORIAN_QUEUE_NAME" envDefault:"memorymatch_actions"`

	PGUser     string `env:"POSTGRES_USER"`
	PGPassword string `env:"POSTGRES_PASSWORD"`
	PGHost     string `env:"PG_HOST"`
	PGPort     string `env:"PG_PORT" envDefault:"5432"`
	PGDatabase string `env:"PG_DATABASE"`

	TokenExpiry    string `env:"TOKEN_EXPIRE_TIME"`
	PrivateKeyPath string `env:"AUTH_PRIVATE_KEY_PATH"`
	PublicKeyPath  string `env:"AUTH_PUBLIC_KEY_PATH"`

	BatchSize      int `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	FlushMS        int `env:"HISTORIAN_FLUSH_MS" envDefault:"500"`
	InactivitySec  int `env:"ROUND_INACTIVITY_TIMEOUT_SEC" envDefault:"600"`
	IdleTimeoutSec int `env:"SESSION_IDLE_TIMEOUT_SEC" envDefault:"3600"`

	TickMS     int `env:"REVEAL_TICK_MS" envDefault:"1000"`
	MismatchMS int `env:"MISMATCH_DELAY_MS" envDefault:"1000"`
	StaggerMS  int `env:"FLIP_STAGGER_MS" envDefault:"100"`
}

// Load reads the process environment.
func Load() (Config, error) {
	var raw rawEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return raw.config()
}

// LoadFrom reads the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var raw rawEnv
	if err := env.ParseWithOptions(&raw, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return raw.config()
}

func (r rawEnv) config() (Config, error) {
	level, err := logrus.ParseLevel(r.LogLevel)
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	expiry, err := parseExpiry(r.TokenExpiry)
	if err != nil {
		return Config{}, fmt.Errorf("TOKEN_EXPIRE_TIME: %w", err)
	}
	if r.TickMS <= 0 {
		return Config{}, fmt.Errorf("REVEAL_TICK_MS must be positive, got %d", r.TickMS)
	}
	if r.MismatchMS < 0 || r.StaggerMS < 0 || r.FlushMS < 0 {
		return Config{}, fmt.Errorf("delays must not be negative")
	}
	if r.BatchSize <= 0 {
		return Config{}, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", r.BatchSize)
	}

	return Config{
		Port:     r.Port,
		LogLevel: level,

		RedisAddr: r.RedisAddr,
		RedisDB:   r.RedisDB,
		QueueName: r.QueueName,

		PGUser:     r.PGUser,
		PGPassword: r.PGPassword,
		PGHost:     r.PGHost,
		PGPort:     r.PGPort,
		PGDatabase: r.PGDatabase,

		TokenExpiry:        expiry,
		AuthPrivateKeyPath: r.PrivateKeyPath,
		AuthPublicKeyPath:  r.PublicKeyPath,

		HistorianBatchSize:  r.BatchSize,
		HistorianFlushDelay: millis(r.FlushMS),
		RoundInactivity:     time.Duration(r.InactivitySec) * time.Second,
		SessionIdleTimeout:  time.Duration(r.IdleTimeoutSec) * time.Second,

		Timing: game.Timing{
			Tick:          millis(r.TickMS),
			MismatchDelay: millis(r.MismatchMS),
			FlipStagger:   millis(r.StaggerMS),
		},
	}, nil
}

// PostgresURL builds the pgx connection string.
func (c Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// parseExpiry accepts a Go duration, or "never"/"0"/"" for no expiry.
func parseExpiry(s string) (time.Duration, error) {
	if s == "" || s == "never" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
