// internal/database/round.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/memorymatch/internal/models"
)

// RecordRoundResult persists a won round and closes its rounds row.
func RecordRoundResult(ctx context.Context, r models.RoundResult) error {
	if DB == nil {
		return ErrNotConnected
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO round_results (session_id, round, score, pair_count, grid_size, theme, duration_ms, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (session_id, round) DO NOTHING
		`
		if _, err := tx.Exec(ctx, q, r.SessionID, r.Round, r.Score, r.PairCount, r.GridSize, r.Theme, r.Duration.Milliseconds(), r.FinishedAt); err != nil {
			return err
		}

		upsertRound := `
			INSERT INTO rounds (session_id, round, status, start_time, end_time)
			VALUES ($1, $2, 'completed', $3, $4)
			ON CONFLICT (session_id, round)
			DO UPDATE SET status = 'completed', end_time = $4
		`
		_, err := tx.Exec(ctx, upsertRound, r.SessionID, r.Round, r.FinishedAt.Add(-r.Duration), r.FinishedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("tx record round result: %w", err)
	}
	return nil
}

// TopRoundResults returns the fastest won rounds for a grid size.
func TopRoundResults(ctx context.Context, gridSize, limit int) ([]models.RoundResult, error) {
	if DB == nil {
		return nil, ErrNotConnected
	}
	q := `
		SELECT session_id, round, score, pair_count, grid_size, theme, duration_ms, finished_at
		FROM round_results
		WHERE grid_size = $1
		ORDER BY duration_ms ASC, finished_at ASC
		LIMIT $2
	`
	rows, err := DB.Query(ctx, q, gridSize, limit)
	if err != nil {
		return nil, fmt.Errorf("query round results: %w", err)
	}
	defer rows.Close()

	var out []models.RoundResult
	for rows.Next() {
		var r models.RoundResult
		var durationMS int64
		if err := rows.Scan(&r.SessionID, &r.Round, &r.Score, &r.PairCount, &r.GridSize, &r.Theme, &durationMS, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan round result: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertRoundActions writes a batch of actions in a single transaction,
// opening a rounds row for each round seen and closing it on round end.
func InsertRoundActions(ctx context.Context, actions []models.RoundAction) error {
	if DB == nil {
		return ErrNotConnected
	}
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, a := range actions {
			if err := insertRoundActionTx(ctx, tx, a); err != nil {
				return fmt.Errorf("insertRoundActionTx: %w", err)
			}
		}
		return nil
	})
}

func insertRoundActionTx(ctx context.Context, tx pgx.Tx, a models.RoundAction) error {
	at := time.UnixMilli(a.Timestamp)
	upsertRound := `
		INSERT INTO rounds (session_id, round, status, start_time)
		VALUES ($1, $2, 'in_progress', $3)
		ON CONFLICT (session_id, round) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertRound, a.SessionID, a.Round, at); err != nil {
		return err
	}

	payload, err := json.Marshal(a.ActionPayload)
	if err != nil {
		return err
	}
	insertAction := `
		INSERT INTO round_actions (session_id, round, action_index, action_type, action_payload, action_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, round, action_index) DO NOTHING
	`
	if _, err := tx.Exec(ctx, insertAction, a.SessionID, a.Round, a.ActionIndex, a.ActionType, payload, at); err != nil {
		return err
	}

	var status string
	switch a.ActionType {
	case models.ActionRoundWon:
		status = "completed"
	case models.ActionRoundReset:
		status = "reset"
	default:
		return nil
	}
	finalize := `
		UPDATE rounds
		SET status = $3, end_time = $4
		WHERE session_id = $1 AND round = $2 AND status = 'in_progress'
	`
	_, err = tx.Exec(ctx, finalize, a.SessionID, a.Round, status, at)
	return err
}

// MarkRoundAbandoned flags a round that is still in progress as abandoned.
// It reports whether a row changed.
func MarkRoundAbandoned(ctx context.Context, sessionID uuid.UUID, round int) (bool, error) {
	if DB == nil {
		return false, ErrNotConnected
	}
	q := `
		UPDATE rounds
		SET status = 'abandoned', end_time = NOW()
		WHERE session_id = $1 AND round = $2 AND status = 'in_progress'
	`
	tag, err := DB.Exec(ctx, q, sessionID, round)
	if err != nil {
		return false, fmt.Errorf("mark round abandoned: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ActionStore adapts the package functions for the historian.
type ActionStore struct{}

func (ActionStore) InsertRoundActions(ctx context.Context, actions []models.RoundAction) error {
	return InsertRoundActions(ctx, actions)
}

func (ActionStore) MarkRoundAbandoned(ctx context.Context, sessionID uuid.UUID, round int) (bool, error) {
	return MarkRoundAbandoned(ctx, sessionID, round)
}
