package sinks

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const ledGlyph = "●"

// Terminal draws frames as coloured dots, redrawing in place and only
// when the frame changed.
type Terminal struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *lipgloss.Renderer
	styles   map[[3]uint8]lipgloss.Style
	last     []byte
	drawn    bool
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		w:        w,
		renderer: lipgloss.NewRenderer(w),
		styles:   make(map[[3]uint8]lipgloss.Style),
	}
}

func (t *Terminal) style(r, g, b uint8) lipgloss.Style {
	k := [3]uint8{r, g, b}
	s, ok := t.styles[k]
	if !ok {
		if r == 0 && g == 0 && b == 0 {
			r, g, b = 40, 40, 40
		}
		s = t.renderer.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, b)))
		t.styles[k] = s
	}
	return s
}

func (t *Terminal) Show(frame *image.RGBA) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.drawn && bytes.Equal(t.last, frame.Pix) {
		return nil
	}
	t.last = append(t.last[:0], frame.Pix...)

	b := frame.Bounds()
	var sb strings.Builder
	if t.drawn {
		fmt.Fprintf(&sb, "\x1b[%dA", b.Dy())
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := frame.RGBAAt(x, y)
			sb.WriteString(t.style(c.R, c.G, c.B).Render(ledGlyph))
		}
		sb.WriteByte('\n')
	}
	t.drawn = true
	_, err := io.WriteString(t.w, sb.String())
	return err
}
