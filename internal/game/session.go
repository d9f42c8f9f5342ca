// internal/game/session.go
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/memorymatch/internal/models"
	"github.com/sirupsen/logrus"
)

// Phase is the lifecycle position of the current round.
type Phase string

const (
	PhaseSetup              Phase = "setup"
	PhaseRevealing          Phase = "revealing"
	PhaseAwaitingFirstPick  Phase = "awaiting_first_pick"
	PhaseAwaitingSecondPick Phase = "awaiting_second_pick"
	PhaseResolving          Phase = "resolving"
	PhaseFinished           Phase = "finished"
)

// Action types written to the session action log.
const (
	ActionRoundStart     = models.ActionRoundStart
	ActionRevealComplete = models.ActionRevealComplete
	ActionCardSelect     = models.ActionCardSelect
	ActionPairMatch      = models.ActionPairMatch
	ActionPairMismatch   = models.ActionPairMismatch
	ActionForceFlip      = models.ActionForceFlip
	ActionRoundWon       = models.ActionRoundWon
	ActionRoundReset     = models.ActionRoundReset
)

const noCard = -1

// timer is the part of *time.Timer a session needs.
type timer interface {
	Stop() bool
}

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// Session owns one player's board: the deck, the round state and every timer
// scheduled on behalf of the round. All events (selections, ticks, delays)
// are serialized through mu.
type Session struct {
	ID     uuid.UUID
	Timing Timing
	Logger *logrus.Entry

	// OnRoundEnd is invoked once per won round, with the lock held.
	OnRoundEnd func(result models.RoundResult)

	// ActionSink receives every logged action, with the lock held. If nil, actions are dropped.
	ActionSink func(action models.RoundAction)

	mu        sync.Mutex
	view      BoardView
	assets    AssetProvider
	afterFunc func(d time.Duration, f func()) timer
	rng       *rand.Rand
	now       func() time.Time

	cfg          Config
	front        string
	deck         []*Card
	phase        Phase
	score        int
	matchedPairs int
	first        int
	second       int
	countdown    int
	round        int // bumped on every start and reset; timers compare against it
	startedAt    time.Time
	actionIndex  int

	tickTimer     timer
	mismatchTimer timer
	revealSeq     *flipSequence
	forceSeq      *flipSequence
}

// NewSession builds an idle session in the Setup phase.
func NewSession(view BoardView, assets AssetProvider) *Session {
	id, _ := uuid.NewRandom()
	return &Session{
		ID:        id,
		Timing:    DefaultTiming(),
		Logger:    logrus.WithField("session", id.String()),
		view:      view,
		assets:    assets,
		afterFunc: realAfterFunc,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
		phase:     PhaseSetup,
		first:     noCard,
		second:    noCard,
	}
}

// StartRound validates cfg, deals a fresh deck face up and starts the reveal
// countdown. On error nothing about the session changes.
func (s *Session) StartRound(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeLocked() {
		return ErrRoundInProgress
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	pairs := cfg.PairCount()
	theme, err := s.assets.Theme(cfg.Theme)
	if err != nil {
		return &ConfigError{Field: "theme", Reason: fmt.Sprintf("cannot resolve %q", cfg.Theme), Err: err}
	}
	if theme.Front == "" {
		return &ConfigError{Field: "theme", Reason: fmt.Sprintf("%q has no front image", cfg.Theme)}
	}
	backs := dedupe(theme.Backs)
	if len(backs) < pairs {
		return &ConfigError{Field: "theme", Reason: fmt.Sprintf("%q has %d distinct images, grid %d needs %d", cfg.Theme, len(backs), cfg.GridSize, pairs)}
	}

	s.cancelTimersLocked()
	s.round++
	s.cfg = cfg
	s.front = theme.Front
	s.deck = buildDeck(pickSymbols(backs, pairs, s.rng), s.rng)
	s.phase = PhaseRevealing
	s.score = 0
	s.matchedPairs = 0
	s.first, s.second = noCard, noCard
	s.countdown = cfg.RevealSeconds
	s.startedAt = s.now()
	s.actionIndex = 0

	s.Logger.WithFields(logrus.Fields{
		"round":    s.round,
		"gridSize": cfg.GridSize,
		"theme":    cfg.Theme,
	}).Info("round started")
	s.logAction(ActionRoundStart, map[string]interface{}{
		"gridSize":      cfg.GridSize,
		"revealSeconds": cfg.RevealSeconds,
		"theme":         cfg.Theme,
		"symbols":       s.symbolsLocked(),
	})

	s.view.RenderDeck(s.front, s.cardsLocked())
	s.view.SetScore(0)
	s.view.SetCountdown(s.countdown)
	s.scheduleTickLocked()
	return nil
}

// SelectCard handles a click on cardID. Selections made while locked, outside
// the picking phases, on matched or unknown cards, or repeating the held first
// pick are dropped.
func (s *Session) SelectCard(cardID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.Logger.WithField("card", cardID)
	if s.lockedLocked() {
		entry.Debug("selection ignored: board locked")
		return
	}
	if s.phase != PhaseAwaitingFirstPick && s.phase != PhaseAwaitingSecondPick {
		entry.WithField("phase", s.phase).Debug("selection ignored: not picking")
		return
	}
	card := s.cardLocked(cardID)
	if card == nil {
		entry.Debug("selection ignored: unknown card")
		return
	}
	if card.Matched {
		entry.Debug("selection ignored: card already matched")
		return
	}
	if cardID == s.first {
		entry.Debug("selection ignored: same card picked twice")
		return
	}

	s.view.PlaySound(SoundFlip)
	s.orientLocked(card, FaceUp)

	if s.first == noCard {
		s.first = cardID
		s.phase = PhaseAwaitingSecondPick
		s.logAction(ActionCardSelect, map[string]interface{}{"card": cardID, "pick": 1})
		return
	}

	s.second = cardID
	s.phase = PhaseResolving
	s.logAction(ActionCardSelect, map[string]interface{}{"card": cardID, "pick": 2})
	s.resolveLocked()
}

// resolveLocked compares the two held picks. Assumes the lock is held.
func (s *Session) resolveLocked() {
	a, b := s.deck[s.first], s.deck[s.second]

	if a.Symbol != b.Symbol {
		s.view.PlaySound(SoundError)
		s.logAction(ActionPairMismatch, map[string]interface{}{"cards": []int{a.ID, b.ID}})
		s.scheduleMismatchLocked(a, b)
		return
	}

	a.Matched, b.Matched = true, true
	s.score++
	s.matchedPairs++
	s.view.PlaySound(SoundMatch)
	for _, c := range []*Card{a, b} {
		s.view.SetMatched(c.ID, true)
		if s.cfg.HideMatchedOnMatch {
			c.Hidden = true
			s.view.SetHidden(c.ID, true)
		}
	}
	s.view.SetScore(s.score)
	s.first, s.second = noCard, noCard
	s.logAction(ActionPairMatch, map[string]interface{}{
		"cards":  []int{a.ID, b.ID},
		"symbol": a.Symbol,
		"score":  s.score,
	})

	if s.matchedPairs == s.cfg.PairCount() {
		s.finishLocked()
		return
	}
	s.phase = PhaseAwaitingFirstPick
}

// finishLocked ends a won round. Assumes the lock is held.
func (s *Session) finishLocked() {
	s.cancelTimersLocked()
	s.phase = PhaseFinished

	result := models.RoundResult{
		SessionID:  s.ID,
		Round:      s.round,
		Score:      s.score,
		PairCount:  s.cfg.PairCount(),
		GridSize:   s.cfg.GridSize,
		Theme:      s.cfg.Theme,
		Duration:   s.now().Sub(s.startedAt),
		FinishedAt: s.now(),
	}
	s.Logger.WithFields(logrus.Fields{
		"round":    s.round,
		"score":    s.score,
		"duration": result.Duration,
	}).Info("round won")
	s.logAction(ActionRoundWon, map[string]interface{}{"score": s.score})

	s.view.NotifyRoundWon(s.score)
	if s.OnRoundEnd != nil {
		s.OnRoundEnd(result)
	}
}

// ResetRound abandons whatever round is in flight and returns to Setup.
// Pending timers are stopped and any that already fired are discarded.
func (s *Session) ResetRound() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseSetup {
		s.logAction(ActionRoundReset, map[string]interface{}{"phase": s.phase, "score": s.score})
		s.Logger.WithFields(logrus.Fields{"round": s.round, "phase": s.phase}).Info("round reset")
	}
	s.cancelTimersLocked()
	s.round++
	s.cfg = Config{}
	s.front = ""
	s.deck = nil
	s.phase = PhaseSetup
	s.score = 0
	s.matchedPairs = 0
	s.first, s.second = noCard, noCard
	s.countdown = 0
}

// ForceRevealAll turns every unmatched card face up, one card at a time.
func (s *Session) ForceRevealAll() {
	s.forceFlipAll(FaceUp)
}

// ForceHideAll turns every unmatched card face down, one card at a time.
func (s *Session) ForceHideAll() {
	s.forceFlipAll(FaceDown)
}

func (s *Session) forceFlipAll(target Orientation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deck == nil {
		return
	}
	if s.forceSeq != nil {
		s.forceSeq.cancel()
		s.forceSeq = nil
	}
	ids := make([]int, 0, len(s.deck))
	for _, c := range s.deck {
		if !c.Matched {
			ids = append(ids, c.ID)
		}
	}
	s.logAction(ActionForceFlip, map[string]interface{}{"target": target, "cards": len(ids)})

	seq := &flipSequence{ids: ids, target: target}
	seq.onDone = func() {
		if s.forceSeq == seq {
			s.forceSeq = nil
		}
	}
	s.forceSeq = seq
	s.advanceLocked(seq)
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	SessionID    uuid.UUID `json:"sessionId"`
	Round        int       `json:"round"`
	Phase        Phase     `json:"phase"`
	Config       Config    `json:"config"`
	Front        string    `json:"front,omitempty"`
	Cards        []Card    `json:"cards"`
	Score        int       `json:"score"`
	MatchedPairs int       `json:"matchedPairs"`
	PairCount    int       `json:"pairCount"`
	Countdown    int       `json:"countdown"`
	Locked       bool      `json:"locked"`
	FirstPick    *int      `json:"firstPick,omitempty"`
	SecondPick   *int      `json:"secondPick,omitempty"`
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:    s.ID,
		Round:        s.round,
		Phase:        s.phase,
		Config:       s.cfg,
		Front:        s.front,
		Cards:        s.cardsLocked(),
		Score:        s.score,
		MatchedPairs: s.matchedPairs,
		Countdown:    s.countdown,
		Locked:       s.lockedLocked(),
	}
	if s.deck != nil {
		snap.PairCount = s.cfg.PairCount()
	}
	if s.first != noCard {
		v := s.first
		snap.FirstPick = &v
	}
	if s.second != noCard {
		v := s.second
		snap.SecondPick = &v
	}
	return snap
}

// Phase reports the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// activeLocked reports whether a round is being played.
func (s *Session) activeLocked() bool {
	switch s.phase {
	case PhaseRevealing, PhaseAwaitingFirstPick, PhaseAwaitingSecondPick, PhaseResolving:
		return true
	}
	return false
}

// lockedLocked is the board lock: input is rejected while the reveal runs,
// while a wrong pair is on display, or while a forced flip sequence runs.
func (s *Session) lockedLocked() bool {
	return s.phase == PhaseRevealing || s.mismatchTimer != nil || s.forceSeq != nil
}

func (s *Session) cardLocked(id int) *Card {
	if id < 0 || id >= len(s.deck) {
		return nil
	}
	return s.deck[id]
}

func (s *Session) cardsLocked() []Card {
	if s.deck == nil {
		return nil
	}
	out := make([]Card, len(s.deck))
	for i, c := range s.deck {
		out[i] = *c
	}
	return out
}

func (s *Session) symbolsLocked() []string {
	out := make([]string, len(s.deck))
	for i, c := range s.deck {
		out[i] = c.Symbol
	}
	return out
}

func (s *Session) orientLocked(c *Card, o Orientation) {
	c.Orientation = o
	s.view.SetOrientation(c.ID, o)
}

// logAction appends an entry to the session action log.
// Assumes the lock is held.
func (s *Session) logAction(actionType string, payload map[string]interface{}) {
	s.actionIndex++
	if s.ActionSink == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	s.ActionSink(models.RoundAction{
		SessionID:     s.ID,
		Round:         s.round,
		ActionIndex:   s.actionIndex,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     s.now().UnixMilli(),
	})
}
