// internal/game/sync_state.go
package game

// Obfuscated returns a copy of the snapshot safe to send to the player: the
// symbol of every face-down, unmatched card is blanked so a resync cannot
// reveal the board.
func (s Snapshot) Obfuscated() Snapshot {
	out := s
	if s.Cards == nil {
		return out
	}
	out.Cards = make([]Card, len(s.Cards))
	for i, c := range s.Cards {
		if c.Orientation == FaceDown && !c.Matched {
			c.Symbol = ""
		}
		out.Cards[i] = c
	}
	return out
}
