package assets

import (
	"errors"
	"testing"

	"github.com/jason-s-yu/memorymatch/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogCoversEveryGridSize(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, []string{"theme1", "theme2"}, c.Names())

	for _, name := range c.Names() {
		th, err := c.Theme(name)
		require.NoError(t, err)
		assert.NotEmpty(t, th.Front)
		for _, grid := range game.AllowedGridSizes {
			assert.GreaterOrEqual(t, len(th.Backs), grid*grid/2, "theme %s grid %d", name, grid)
		}
	}
}

func TestUnknownTheme(t *testing.T) {
	_, err := DefaultCatalog().Theme("theme3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTheme))
}

func TestThemeReturnsCopy(t *testing.T) {
	c := NewCatalog()
	c.Register("x", game.ThemeAssets{Front: "f", Backs: []string{"a", "b"}})

	th, err := c.Theme("x")
	require.NoError(t, err)
	th.Backs[0] = "mutated"

	again, err := c.Theme("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, again.Backs)
}

func TestCatalogDrivesSession(t *testing.T) {
	s := game.NewSession(nopView{}, DefaultCatalog())
	err := s.StartRound(game.Config{GridSize: 4, RevealSeconds: 5, Theme: "theme2"})
	require.NoError(t, err)
	defer s.ResetRound()
	assert.Equal(t, "img/theme2/front.png", s.Snapshot().Front)

	s2 := game.NewSession(nopView{}, DefaultCatalog())
	err = s2.StartRound(game.Config{GridSize: 2, RevealSeconds: 5, Theme: "missing"})
	assert.ErrorIs(t, err, ErrUnknownTheme)
	assert.ErrorIs(t, err, game.ErrInvalidConfig)
}

type nopView struct{}

func (nopView) RenderDeck(string, []game.Card) {}
func (nopView) SetOrientation(int, game.Orientation) {}
func (nopView) SetMatched(int, bool) {}
func (nopView) SetHidden(int, bool) {}
func (nopView) SetScore(int) {}
func (nopView) SetCountdown(int) {}
func (nopView) NotifyRoundWon(int) {}
func (nopView) PlaySound(game.Sound) {}
