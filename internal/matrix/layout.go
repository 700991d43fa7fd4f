package matrix

// Layout describes how the LED strip is wired behind the panel.
type Layout struct {
	Width   int // tile width
	Height  int // tile height
	TilesX  int
	TilesY  int
	Columns bool // strip runs down columns instead of along rows
	Zigzag  bool // every other row (or column) runs backwards
	Bottom  bool // first pixel sits on the bottom edge
}

const DefaultLayout = 5

// LayoutFor returns the wiring for a configured layout number.
//
//	0  32x8 single, columns, zigzag
//	1  32x8 single, rows, progressive
//	2  32x8 single, rows, zigzag
//	3  32x8 single, bottom origin, columns, progressive
//	4  4x1 tiles of 8x8, rows, zigzag
//	5  4x1 tiles of 8x8, rows, progressive (default)
func LayoutFor(n int) Layout {
	switch n {
	case 0:
		return Layout{Width: 32, Height: 8, TilesX: 1, TilesY: 1, Columns: true, Zigzag: true}
	case 1:
		return Layout{Width: 32, Height: 8, TilesX: 1, TilesY: 1}
	case 2:
		return Layout{Width: 32, Height: 8, TilesX: 1, TilesY: 1, Zigzag: true}
	case 3:
		return Layout{Width: 32, Height: 8, TilesX: 1, TilesY: 1, Columns: true, Bottom: true}
	case 4:
		return Layout{Width: 8, Height: 8, TilesX: 4, TilesY: 1, Zigzag: true}
	default:
		return Layout{Width: 8, Height: 8, TilesX: 4, TilesY: 1}
	}
}

func (l Layout) PanelWidth() int  { return l.Width * l.TilesX }
func (l Layout) PanelHeight() int { return l.Height * l.TilesY }
func (l Layout) NumPixels() int   { return l.PanelWidth() * l.PanelHeight() }

// Index maps a panel coordinate to its position on the strip.
// Out of range coordinates return -1.
func (l Layout) Index(x, y int) int {
	if x < 0 || y < 0 || x >= l.PanelWidth() || y >= l.PanelHeight() {
		return -1
	}
	tx, ty := x/l.Width, y/l.Height
	lx, ly := x%l.Width, y%l.Height
	if l.Bottom {
		ly = l.Height - 1 - ly
	}

	var i int
	if l.Columns {
		if l.Zigzag && lx%2 == 1 {
			ly = l.Height - 1 - ly
		}
		i = lx*l.Height + ly
	} else {
		if l.Zigzag && ly%2 == 1 {
			lx = l.Width - 1 - lx
		}
		i = ly*l.Width + lx
	}
	tile := ty*l.TilesX + tx
	return tile*l.Width*l.Height + i
}
