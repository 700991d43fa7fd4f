package sinks

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/photonicat/pixel_matrix_display/internal/matrix"
)

type captureWriter struct {
	writes [][]byte
	err    error
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

func panel() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, 32, 8))
}

func TestLEDStripOrder(t *testing.T) {
	tests := []struct {
		layout int
		x, y   int
		want   int
	}{
		{5, 0, 0, 0},
		{5, 8, 0, 64},  // second tile
		{5, 1, 1, 9},   // progressive rows
		{4, 0, 1, 15},  // zigzag row runs back
		{1, 31, 1, 63}, // single row-major
		{0, 1, 0, 15},  // zigzag column
	}
	for _, tt := range tests {
		w := &captureWriter{}
		s := NewLEDStrip(matrix.LayoutFor(tt.layout), w)
		f := panel()
		f.SetRGBA(tt.x, tt.y, color.RGBA{1, 2, 3, 255})
		if err := s.Show(f); err != nil {
			t.Fatal(err)
		}
		buf := w.writes[0]
		if len(buf) != 256*3 {
			t.Fatalf("layout %d: wrote %d bytes, want 768", tt.layout, len(buf))
		}
		if got := buf[tt.want*3 : tt.want*3+3]; !bytes.Equal(got, []byte{1, 2, 3}) {
			t.Errorf("layout %d (%d,%d): led %d = %v, want [1 2 3]", tt.layout, tt.x, tt.y, tt.want, got)
		}
	}
}

func TestLEDStripSetLayout(t *testing.T) {
	w := &captureWriter{}
	s := NewLEDStrip(matrix.LayoutFor(5), w)
	s.SetLayout(matrix.LayoutFor(1))
	f := panel()
	f.SetRGBA(8, 0, color.RGBA{9, 9, 9, 255})
	s.Show(f)
	if got := w.writes[0][8*3]; got != 9 {
		t.Errorf("led 8 = %d, want row-major wiring after SetLayout", got)
	}
}

func TestLEDStripWriteError(t *testing.T) {
	s := NewLEDStrip(matrix.LayoutFor(5), &captureWriter{err: errors.New("bus")})
	if err := s.Show(panel()); err == nil {
		t.Error("write error not returned")
	}
}

func TestTerminalRedrawsOnChange(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out)
	f := panel()
	term.Show(f)
	if n := strings.Count(out.String(), ledGlyph); n != 256 {
		t.Fatalf("glyphs = %d, want 256", n)
	}
	if n := strings.Count(out.String(), "\n"); n != 8 {
		t.Errorf("rows = %d, want 8", n)
	}

	out.Reset()
	term.Show(f)
	if out.Len() != 0 {
		t.Error("unchanged frame redrawn")
	}

	f.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	term.Show(f)
	if !strings.HasPrefix(out.String(), "\x1b[8A") {
		t.Error("redraw does not move the cursor back up")
	}
}
