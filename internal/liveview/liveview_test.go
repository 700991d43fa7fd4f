package liveview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"
)

func frameWith(c color.RGBA) *image.RGBA {
	f := image.NewRGBA(image.Rect(0, 0, 32, 8))
	for i := 0; i < len(f.Pix); i += 4 {
		f.Pix[i+3] = 255
	}
	f.SetRGBA(1, 0, c)
	return f
}

func TestSamplerPacksRowMajor(t *testing.T) {
	s := New(0)
	s.Show(frameWith(color.RGBA{10, 20, 30, 255}))

	got, seq := s.Frame()
	if seq != 1 {
		t.Fatalf("seq = %d, want 1", seq)
	}
	if want := len(Prefix) + 32*8*3; len(got) != want {
		t.Fatalf("len = %d, want %d", len(got), want)
	}
	if string(got[:3]) != Prefix {
		t.Errorf("prefix = %q", got[:3])
	}
	if px := got[3+3 : 3+6]; !bytes.Equal(px, []byte{10, 20, 30}) {
		t.Errorf("pixel (1,0) = %v, want [10 20 30]", px)
	}
}

func TestSamplerSkipsUnchanged(t *testing.T) {
	s := New(0)
	f := frameWith(color.RGBA{255, 0, 0, 255})
	s.Show(f)
	s.Show(f)
	if _, seq := s.Frame(); seq != 1 {
		t.Errorf("seq = %d after identical frame, want 1", seq)
	}
	s.Show(frameWith(color.RGBA{0, 255, 0, 255}))
	if _, seq := s.Frame(); seq != 2 {
		t.Errorf("seq = %d after changed frame, want 2", seq)
	}
}

func TestSamplerInterval(t *testing.T) {
	now := time.Unix(0, 0)
	s := New(250*time.Millisecond, WithClock(func() time.Time { return now }))

	s.Show(frameWith(color.RGBA{1, 0, 0, 255}))
	now = now.Add(100 * time.Millisecond)
	s.Show(frameWith(color.RGBA{2, 0, 0, 255}))
	if _, seq := s.Frame(); seq != 1 {
		t.Errorf("sampled inside the interval, seq = %d", seq)
	}
	now = now.Add(200 * time.Millisecond)
	s.Show(frameWith(color.RGBA{3, 0, 0, 255}))
	if _, seq := s.Frame(); seq != 2 {
		t.Errorf("seq = %d after the interval, want 2", seq)
	}
}

func TestSamplerDisabled(t *testing.T) {
	s := New(0)
	s.Show(frameWith(color.RGBA{1, 2, 3, 255}))
	s.Configure(false, 0)
	if f, _ := s.Frame(); f != nil {
		t.Error("disabled sampler still holds a frame")
	}
	s.Show(frameWith(color.RGBA{4, 5, 6, 255}))
	if s.Image() != nil {
		t.Error("disabled sampler sampled")
	}
}

func TestImageIsCopy(t *testing.T) {
	s := New(0)
	src := frameWith(color.RGBA{9, 9, 9, 255})
	s.Show(src)
	img := s.Image()
	src.SetRGBA(1, 0, color.RGBA{})
	if got := img.RGBAAt(1, 0); got != (color.RGBA{9, 9, 9, 255}) {
		t.Errorf("image follows the source: %v", got)
	}
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, frameWith(color.RGBA{0, 0, 255, 255}), 10); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 80 {
		t.Fatalf("size = %v, want 320x80", b)
	}
	r, g, bl, _ := img.At(15, 5).RGBA()
	if bl>>8 < 200 || r>>8 > 50 || g>>8 > 50 {
		t.Errorf("centre of LED (1,0) = %d %d %d, want blue", r>>8, g>>8, bl>>8)
	}
}

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	RenderSVG(&buf, frameWith(color.RGBA{255, 128, 0, 255}), 4)
	out := buf.String()
	if n := strings.Count(out, "<circle"); n != 32*8 {
		t.Errorf("circles = %d, want 256", n)
	}
	if !strings.Contains(out, "fill:#FF8000") {
		t.Error("lit LED colour missing")
	}
}
