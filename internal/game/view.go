// internal/game/view.go
package game

// Sound is an advisory audio cue.
type Sound string

const (
	SoundFlip  Sound = "flip"
	SoundMatch Sound = "match"
	SoundError Sound = "error"
)

// BoardView is the presentation side of a Session. Every method is invoked
// synchronously while the session lock is held, so implementations must
// return quickly and must not call back into the Session.
type BoardView interface {
	RenderDeck(front string, cards []Card)
	SetOrientation(cardID int, o Orientation)
	SetMatched(cardID int, matched bool)
	SetHidden(cardID int, hidden bool)
	SetScore(score int)
	SetCountdown(seconds int)
	NotifyRoundWon(score int)
	PlaySound(s Sound)
}

// ThemeAssets is what a theme resolves to: one shared front image and the
// pool of back images used as card symbols.
type ThemeAssets struct {
	Front string   `json:"front"`
	Backs []string `json:"backs"`
}

// AssetProvider resolves a theme name to its images.
type AssetProvider interface {
	Theme(name string) (ThemeAssets, error)
}
