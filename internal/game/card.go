// internal/game/card.go
package game

import (
	"math/rand"
)

// Orientation is the visible side of a card.
type Orientation string

const (
	FaceUp   Orientation = "face_up"   // symbol visible
	FaceDown Orientation = "face_down" // shared front image visible
)

// Card is a single cell of the grid.
type Card struct {
	ID          int         `json:"id"`
	Symbol      string      `json:"symbol"`
	Orientation Orientation `json:"orientation"`
	Matched     bool        `json:"matched"`
	Hidden      bool        `json:"hidden,omitempty"`
}

// buildDeck duplicates each symbol, shuffles the result and assigns grid ids.
// Every card starts FaceUp since the round opens with the reveal countdown.
func buildDeck(symbols []string, r *rand.Rand) []*Card {
	pool := make([]string, 0, len(symbols)*2)
	pool = append(pool, symbols...)
	pool = append(pool, symbols...)
	shuffleStrings(pool, r)

	deck := make([]*Card, len(pool))
	for i, sym := range pool {
		deck[i] = &Card{ID: i, Symbol: sym, Orientation: FaceUp}
	}
	return deck
}

// shuffleStrings is an in-place Fisher–Yates shuffle.
func shuffleStrings(s []string, r *rand.Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// pickSymbols shuffles a copy of backs and keeps the first n.
func pickSymbols(backs []string, n int, r *rand.Rand) []string {
	pool := make([]string, len(backs))
	copy(pool, backs)
	shuffleStrings(pool, r)
	return pool[:n]
}

// dedupe returns s without empty or repeated entries, preserving order.
func dedupe(s []string) []string {
	seen := make(map[string]struct{}, len(s))
	out := make([]string, 0, len(s))
	for _, v := range s {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
