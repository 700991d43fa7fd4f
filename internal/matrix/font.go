package matrix

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	glyphWidth   = 3
	glyphAscent  = 5
	glyphDescent = 1
	glyphAdvance = 4
)

// glyphs is the 3x5 panel font for ' '..'_' followed by '°'.
// Each octal digit is one row, top row first, MSB is the left column.
var glyphs = [...]uint16{
	0o00000, 0o22202, 0o55000, 0o57575, 0o36236, 0o51245, 0o26353, 0o22000, // ' ' ! " # $ % & '
	0o12221, 0o42224, 0o05250, 0o02720, 0o00024, 0o00700, 0o00002, 0o11244, // ( ) * + , - . /
	0o75557, 0o26227, 0o71747, 0o71717, 0o55711, 0o74717, 0o74757, 0o71111, // 0-7
	0o75757, 0o75717, 0o02020, 0o02024, 0o12421, 0o07070, 0o42124, 0o71202, // 8 9 : ; < = > ?
	0o75743, 0o25755, 0o65656, 0o34443, 0o65556, 0o74647, 0o74644, 0o34553, // @ A-G
	0o55755, 0o72227, 0o11152, 0o55655, 0o44447, 0o57555, 0o65555, 0o25552, // H-O
	0o65644, 0o25563, 0o65655, 0o34216, 0o72222, 0o55557, 0o55552, 0o55575, // P-W
	0o55255, 0o55222, 0o71247, 0o32223, 0o44211, 0o62226, 0o25000, 0o00007, // X Y Z [ \ ] ^ _
	0o25200, // °
}

// Font is the panel font. Lower case letters render as upper case.
var Font font.Face = newFace()

func newFace() *basicfont.Face {
	rows := glyphAscent + glyphDescent
	mask := image.NewAlpha(image.Rect(0, 0, glyphWidth, rows*len(glyphs)))
	for i, g := range glyphs {
		for row := 0; row < glyphAscent; row++ {
			bits := g >> (3 * (glyphAscent - 1 - row)) & 7
			for col := 0; col < glyphWidth; col++ {
				if bits&(4>>col) != 0 {
					mask.SetAlpha(col, i*rows+row, color.Alpha{A: 0xff})
				}
			}
		}
	}
	return &basicfont.Face{
		Advance: glyphAdvance,
		Width:   glyphWidth,
		Height:  rows,
		Ascent:  glyphAscent,
		Descent: glyphDescent,
		Mask:    mask,
		Ranges: []basicfont.Range{
			{Low: ' ', High: '`', Offset: 0},
			{Low: 'a', High: '{', Offset: 'A' - ' '},
			{Low: '°', High: '±', Offset: len(glyphs) - 1},
		},
	}
}

// TextWidth is the lit width of text in pixels, without trailing spacing.
func TextWidth(text string) int {
	if text == "" {
		return 0
	}
	return font.MeasureString(Font, text).Round() - (glyphAdvance - glyphWidth)
}

// PrintText draws text with its baseline at y. When centered the text is
// centred on the surface and x is applied as an offset on top of that.
// It returns the x after the last glyph.
func PrintText(dst draw.Image, x, y int, text string, clr color.Color, centered bool) int {
	text = strings.ToUpper(text)
	if centered {
		x += (dst.Bounds().Dx() - TextWidth(text)) / 2
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(clr),
		Face: Font,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
	return d.Dot.X.Round()
}

// HLine draws a horizontal line from x0 to x1 inclusive.
func HLine(dst draw.Image, x0, x1, y int, clr color.Color) {
	for x := x0; x <= x1; x++ {
		dst.Set(x, y, clr)
	}
}

// FillRect fills a w by h rectangle at (x, y).
func FillRect(dst draw.Image, x, y, w, h int, clr color.Color) {
	draw.Draw(dst, image.Rect(x, y, x+w, y+h), image.NewUniform(clr), image.Point{}, draw.Src)
}
