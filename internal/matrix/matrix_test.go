package matrix

import (
	"image"
	"image/color"
	"testing"
)

func TestRGB565(t *testing.T) {
	tests := []struct {
		in   RGB565
		want color.RGBA
	}{
		{0x0000, color.RGBA{0, 0, 0, 255}},
		{0xF800, color.RGBA{255, 0, 0, 255}},
		{0x07E0, color.RGBA{0, 255, 0, 255}},
		{0x001F, color.RGBA{0, 0, 255, 255}},
		{0xFFFF, color.RGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		got := color.RGBAModel.Convert(tt.in).(color.RGBA)
		if got != tt.want {
			t.Errorf("RGB565(%#04x) = %v, want %v", uint16(tt.in), got, tt.want)
		}
		if back := ToRGB565(got); back != tt.in {
			t.Errorf("ToRGB565(%v) = %#04x, want %#04x", got, uint16(back), uint16(tt.in))
		}
	}
	if got := Pack565(255, 0, 0); got != 0xF800 {
		t.Errorf("Pack565(255,0,0) = %#04x, want 0xf800", uint16(got))
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#f273e1")
	if err != nil {
		t.Fatalf("ParseHex returned error: %v", err)
	}
	if want := (color.RGBA{0xf2, 0x73, 0xe1, 255}); c != want {
		t.Errorf("ParseHex = %v, want %v", c, want)
	}
	if _, err := ParseHex("nope"); err == nil {
		t.Error("ParseHex should fail on invalid input")
	}
	if got := HexOr("", White); got != White {
		t.Errorf("HexOr empty = %v, want white", got)
	}
}

func TestLayoutIndex(t *testing.T) {
	tests := []struct {
		layout int
		x, y   int
		want   int
	}{
		{1, 0, 0, 0},
		{1, 31, 0, 31},
		{1, 0, 1, 32},
		{2, 0, 1, 63}, // second row runs backwards
		{0, 0, 7, 7},
		{0, 1, 0, 15}, // second column runs upwards
		{3, 0, 0, 7},  // bottom origin
		{5, 8, 0, 64}, // second tile
		{5, 9, 1, 64 + 9},
		{4, 8, 1, 64 + 15},
		{5, 32, 0, -1},
	}
	for _, tt := range tests {
		if got := LayoutFor(tt.layout).Index(tt.x, tt.y); got != tt.want {
			t.Errorf("layout %d Index(%d,%d) = %d, want %d", tt.layout, tt.x, tt.y, got, tt.want)
		}
	}
}

func TestLayoutIsPermutation(t *testing.T) {
	for n := 0; n <= 5; n++ {
		l := LayoutFor(n)
		seen := make(map[int]bool)
		for y := 0; y < l.PanelHeight(); y++ {
			for x := 0; x < l.PanelWidth(); x++ {
				i := l.Index(x, y)
				if i < 0 || i >= l.NumPixels() || seen[i] {
					t.Fatalf("layout %d: bad or duplicate index %d at (%d,%d)", n, i, x, y)
				}
				seen[i] = true
			}
		}
	}
}

func TestPrintText(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 8))
	end := PrintText(img, 0, 6, "1", White, false)
	if end != 4 {
		t.Errorf("PrintText end = %d, want 4", end)
	}
	// '1' is .#. on its top row, baseline 6 means the top row is y=1
	if got := img.RGBAAt(1, 1); got != White {
		t.Errorf("pixel (1,1) = %v, want white", got)
	}
	if got := img.RGBAAt(0, 1); got.R != 0 {
		t.Errorf("pixel (0,1) = %v, want unlit", got)
	}

	if got := TextWidth("12:34"); got != 19 {
		t.Errorf("TextWidth = %d, want 19", got)
	}
	if got := TextWidth(""); got != 0 {
		t.Errorf("TextWidth empty = %d, want 0", got)
	}
}

func TestPrintTextCentered(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 8))
	PrintText(img, 0, 6, "-", White, true)
	// width 3 on a 32 wide panel starts at x=14, '-' lights the middle row
	for x := 14; x < 17; x++ {
		if got := img.RGBAAt(x, 3); got != White {
			t.Errorf("pixel (%d,3) = %v, want white", x, got)
		}
	}
}

type frameSink struct {
	frames []*image.RGBA
}

func (s *frameSink) Show(frame *image.RGBA) error {
	cp := image.NewRGBA(frame.Rect)
	copy(cp.Pix, frame.Pix)
	s.frames = append(s.frames, cp)
	return nil
}

func TestCanvasShowBrightness(t *testing.T) {
	sink := &frameSink{}
	c := NewCanvas(4, 2, sink)
	c.Set(0, 0, White)
	c.SetBrightness(128)
	if err := c.Show(); err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	if got := sink.frames[0].RGBAAt(0, 0).R; got != 128 {
		t.Errorf("scaled red = %d, want 128", got)
	}
	if got := c.RGBAAt(0, 0); got != White {
		t.Errorf("drawn frame changed by Show: %v", got)
	}

	c.SetOff(true)
	c.Show()
	if got := sink.frames[1].RGBAAt(0, 0).R; got != 0 {
		t.Errorf("red while off = %d, want 0", got)
	}

	c.Clear()
	if got := c.RGBAAt(0, 0); got != Black {
		t.Errorf("after Clear = %v, want black", got)
	}
}
