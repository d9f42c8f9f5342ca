package models

import "github.com/google/uuid"

// Action types written to a session's action log.
const (
	ActionRoundStart     = "round_start"
	ActionRevealComplete = "reveal_complete"
	ActionCardSelect     = "card_select"
	ActionPairMatch      = "pair_match"
	ActionPairMismatch   = "pair_mismatch"
	ActionForceFlip      = "force_flip"
	ActionRoundWon       = "round_won"
	ActionRoundReset     = "round_reset"
)

// RoundAction is one entry of a session's ordered action log. It is the record
// pushed onto the historian queue.
type RoundAction struct {
	SessionID     uuid.UUID              `json:"session_id"`
	Round         int                    `json:"round"`
	ActionIndex   int                    `json:"action_index"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"` // epoch millis
}
