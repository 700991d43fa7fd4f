package ui

import (
	"image/draw"
	"sort"

	"github.com/photonicat/pixel_matrix_display/internal/frameplayer"
)

// Surface is what pages draw on. Show hands the frame to the pixel
// driver.
type Surface interface {
	draw.Image
	Clear()
	Show() error
}

// RenderFunc draws a page with its origin shifted by (x, y). The player
// belongs to the calling slot and must be used for icons instead of any
// shared instance.
type RenderFunc func(s Surface, st State, x, y int, p *frameplayer.Player)

// OverlayFunc draws on top of the pages every tick.
type OverlayFunc func(s Surface, st State, p *frameplayer.Player)

// Page describes one rotating screen.
type Page struct {
	Name     string
	Render   RenderFunc
	Enabled  bool
	Position int    // sort key
	Duration uint16 // display time in ms, 0 uses the global dwell
}

// SortPages orders pages by Position, keeping the given order for ties.
func SortPages(pages []Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Position < pages[j].Position
	})
}
