// internal/game/config.go
package game

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig is wrapped by every ConfigError.
	ErrInvalidConfig = errors.New("invalid round config")

	// ErrRoundInProgress is returned by StartRound while a round is being played.
	ErrRoundInProgress = errors.New("round already in progress")
)

// AllowedGridSizes are the board edges a round can be played on.
// Each yields an even number of cells.
var AllowedGridSizes = []int{2, 4}

// Config captures the options of a single round. It is read once by StartRound
// and never changes while the round runs.
type Config struct {
	GridSize           int    `json:"gridSize"`
	RevealSeconds      int    `json:"revealSeconds"`
	HideMatchedOnMatch bool   `json:"hideMatchedOnMatch"`
	Theme              string `json:"theme"`
}

// PairCount is the number of distinct symbols on the board.
func (c Config) PairCount() int {
	return c.GridSize * c.GridSize / 2
}

// Validate checks the config without resolving any assets.
func (c Config) Validate() error {
	if !ValidGridSize(c.GridSize) {
		return &ConfigError{Field: "gridSize", Reason: fmt.Sprintf("%d is not one of %v", c.GridSize, AllowedGridSizes)}
	}
	if c.RevealSeconds <= 0 {
		return &ConfigError{Field: "revealSeconds", Reason: fmt.Sprintf("must be positive, got %d", c.RevealSeconds)}
	}
	if c.Theme == "" {
		return &ConfigError{Field: "theme", Reason: "missing"}
	}
	return nil
}

// ValidGridSize reports whether n is one of AllowedGridSizes.
func ValidGridSize(n int) bool {
	if n <= 0 || (n*n)%2 != 0 {
		return false
	}
	for _, s := range AllowedGridSizes {
		if s == n {
			return true
		}
	}
	return false
}

// ConfigError reports a config or asset problem found before any round state
// is created.
type ConfigError struct {
	Field  string
	Reason string
	Err    error // underlying asset error, if any
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", ErrInvalidConfig, e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidConfig, e.Err}
	}
	return []error{ErrInvalidConfig}
}

// Timing holds the animation and countdown delays of a session.
type Timing struct {
	Tick          time.Duration // one countdown step
	MismatchDelay time.Duration // how long a wrong pair stays face up
	FlipStagger   time.Duration // gap between cards in a flip sequence; 0 flips at once
}

// DefaultTiming uses one-second countdown ticks and mismatch display, with
// 100ms between cards when the whole board flips.
func DefaultTiming() Timing {
	return Timing{
		Tick:          time.Second,
		MismatchDelay: time.Second,
		FlipStagger:   100 * time.Millisecond,
	}
}
