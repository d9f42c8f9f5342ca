package models

import (
	"time"

	"github.com/google/uuid"
)

// RoundResult summarizes a won round, as stored in the round_results table.
type RoundResult struct {
	SessionID  uuid.UUID     `json:"session_id"`
	Round      int           `json:"round"`
	Score      int           `json:"score"`
	PairCount  int           `json:"pair_count"`
	GridSize   int           `json:"grid_size"`
	Theme      string        `json:"theme"`
	Duration   time.Duration `json:"duration"`
	FinishedAt time.Time     `json:"finished_at"`
}
