// internal/database/db.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// DB is the global pool. It stays nil when persistence is disabled.
var DB *pgxpool.Pool

// ErrNotConnected is returned by queries issued before ConnectDB.
var ErrNotConnected = errors.New("database not connected")

// schema creates the tables used by the server and the historian.
const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	session_id UUID NOT NULL,
	round      INT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'in_progress',
	start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time   TIMESTAMPTZ,
	PRIMARY KEY (session_id, round)
);

CREATE TABLE IF NOT EXISTS round_actions (
	session_id     UUID NOT NULL,
	round          INT NOT NULL,
	action_index   INT NOT NULL,
	action_type    TEXT NOT NULL,
	action_payload JSONB NOT NULL DEFAULT '{}',
	action_time    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, round, action_index)
);

CREATE TABLE IF NOT EXISTS round_results (
	session_id  UUID NOT NULL,
	round       INT NOT NULL,
	score       INT NOT NULL,
	pair_count  INT NOT NULL,
	grid_size   INT NOT NULL,
	theme       TEXT NOT NULL,
	duration_ms BIGINT NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, round)
);

CREATE INDEX IF NOT EXISTS round_results_grid_duration ON round_results (grid_size, duration_ms);
`

// ConnectDB opens the global pool and makes sure the schema exists.
func ConnectDB(ctx context.Context, connStr string) error {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("db ping error: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	DB = pool
	log.Infof("Connected to database at %s:%d/%s", config.ConnConfig.Host, config.ConnConfig.Port, config.ConnConfig.Database)
	return nil
}

// Close releases the global pool.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}
