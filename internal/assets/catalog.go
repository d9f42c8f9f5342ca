// internal/assets/catalog.go
package assets

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jason-s-yu/memorymatch/internal/game"
)

// ErrUnknownTheme is returned for a theme name the catalog does not hold.
var ErrUnknownTheme = errors.New("unknown theme")

// Catalog maps theme names to image sets. It satisfies game.AssetProvider.
type Catalog struct {
	mu     sync.RWMutex
	themes map[string]game.ThemeAssets
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{themes: make(map[string]game.ThemeAssets)}
}

// DefaultCatalog holds the two themes the game ships with.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	c.Register("theme1", game.ThemeAssets{
		Front: "img/theme1/front.jpg",
		Backs: []string{
			"img/theme1/image1.png", "img/theme1/image2.png", "img/theme1/image3.png",
			"img/theme1/image4.png", "img/theme1/image5.png", "img/theme1/image6.png",
			"img/theme1/image7.png", "img/theme1/image8.png", "img/theme1/image9.jpg",
		},
	})
	c.Register("theme2", game.ThemeAssets{
		Front: "img/theme2/front.png",
		Backs: []string{
			"img/theme2/image1.jpg", "img/theme2/image2.jpg", "img/theme2/image3.jpg",
			"img/theme2/image4.jpg", "img/theme2/image5.jpg", "img/theme2/image6.jpg",
			"img/theme2/image7.jpg", "img/theme2/image8.jpg", "img/theme2/image9.jpg",
		},
	})
	return c
}

// Register adds or replaces a theme.
func (c *Catalog) Register(name string, theme game.ThemeAssets) {
	backs := make([]string, len(theme.Backs))
	copy(backs, theme.Backs)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.themes[name] = game.ThemeAssets{Front: theme.Front, Backs: backs}
}

// Theme resolves name to a copy of its images.
func (c *Catalog) Theme(name string) (game.ThemeAssets, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	th, ok := c.themes[name]
	if !ok {
		return game.ThemeAssets{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	backs := make([]string, len(th.Backs))
	copy(backs, th.Backs)
	return game.ThemeAssets{Front: th.Front, Backs: backs}, nil
}

// Names lists the registered themes in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.themes))
	for name := range c.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
