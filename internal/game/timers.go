// internal/game/timers.go
package game

import (
	"github.com/sirupsen/logrus"
)

// flipSequence turns a list of cards to one orientation, one card per
// FlipStagger. It is owned by the session that started it.
type flipSequence struct {
	ids       []int
	next      int
	target    Orientation
	timer     timer
	cancelled bool
	onDone    func()
}

func (q *flipSequence) cancel() {
	q.cancelled = true
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// scheduleTickLocked arms the next reveal countdown step.
// Assumes the lock is held.
func (s *Session) scheduleTickLocked() {
	round := s.round
	var t timer
	t = s.afterFunc(s.Timing.Tick, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		// A reset or restart since scheduling makes this tick stale.
		if s.round != round || s.tickTimer != t {
			s.Logger.WithField("round", round).Debug("stale countdown tick ignored")
			return
		}
		s.tickTimer = nil
		s.tickLocked()
	})
	s.tickTimer = t
}

// tickLocked advances the reveal countdown by one step.
func (s *Session) tickLocked() {
	s.countdown--
	if s.countdown < 0 {
		s.countdown = 0
	}
	s.view.SetCountdown(s.countdown)
	if s.countdown > 0 {
		s.scheduleTickLocked()
		return
	}

	// Countdown finished: hide the board, then let the player pick.
	ids := make([]int, len(s.deck))
	for i, c := range s.deck {
		ids[i] = c.ID
	}
	seq := &flipSequence{ids: ids, target: FaceDown}
	seq.onDone = func() {
		if s.revealSeq != seq {
			return
		}
		s.revealSeq = nil
		s.phase = PhaseAwaitingFirstPick
		s.logAction(ActionRevealComplete, nil)
		s.Logger.WithField("round", s.round).Debug("reveal complete")
	}
	s.revealSeq = seq
	s.advanceLocked(seq)
}

// scheduleMismatchLocked keeps a wrong pair face up for MismatchDelay and
// then turns both cards back down. Assumes the lock is held.
func (s *Session) scheduleMismatchLocked(a, b *Card) {
	round := s.round
	var t timer
	t = s.afterFunc(s.Timing.MismatchDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.round != round || s.mismatchTimer != t {
			s.Logger.WithField("round", round).Debug("stale mismatch timer ignored")
			return
		}
		s.mismatchTimer = nil
		s.orientLocked(a, FaceDown)
		s.orientLocked(b, FaceDown)
		s.first, s.second = noCard, noCard
		s.phase = PhaseAwaitingFirstPick
	})
	s.mismatchTimer = t
}

// advanceLocked flips the next card of seq and arms the timer for the one
// after it. With no stagger the whole sequence runs at once.
// Assumes the lock is held.
func (s *Session) advanceLocked(seq *flipSequence) {
	for seq.next < len(seq.ids) {
		c := s.cardLocked(seq.ids[seq.next])
		seq.next++
		if c != nil {
			s.view.PlaySound(SoundFlip)
			s.orientLocked(c, seq.target)
		}
		if seq.next < len(seq.ids) && s.Timing.FlipStagger > 0 {
			round := s.round
			var t timer
			t = s.afterFunc(s.Timing.FlipStagger, func() {
				s.mu.Lock()
				defer s.mu.Unlock()

				if s.round != round || seq.cancelled || seq.timer != t {
					s.Logger.WithFields(logrus.Fields{"round": round, "next": seq.next}).Debug("stale flip step ignored")
					return
				}
				seq.timer = nil
				s.advanceLocked(seq)
			})
			seq.timer = t
			return
		}
	}
	if seq.onDone != nil {
		seq.onDone()
	}
}

// cancelTimersLocked stops every timer the session tracks.
// Assumes the lock is held.
func (s *Session) cancelTimersLocked() {
	if s.tickTimer != nil {
		s.tickTimer.Stop()
		s.tickTimer = nil
	}
	if s.mismatchTimer != nil {
		s.mismatchTimer.Stop()
		s.mismatchTimer = nil
	}
	if s.revealSeq != nil {
		s.revealSeq.cancel()
		s.revealSeq = nil
	}
	if s.forceSeq != nil {
		s.forceSeq.cancel()
		s.forceSeq = nil
	}
}
