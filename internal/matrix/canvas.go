package matrix

import (
	"image"
	"sync"
)

// Sink is the pixel-buffer driver that receives finished frames.
type Sink interface {
	Show(frame *image.RGBA) error
}

// Canvas is the drawing surface for one panel. Drawing goes to the
// embedded RGBA image; Show applies brightness and hands the frame to
// the sink.
type Canvas struct {
	*image.RGBA

	sink Sink
	tap  Sink
	out  *image.RGBA

	mu         sync.Mutex
	brightness uint8
	off        bool
}

// NewCanvas creates a cleared canvas of width x height pixels.
func NewCanvas(width, height int, sink Sink) *Canvas {
	c := &Canvas{
		RGBA:       image.NewRGBA(image.Rect(0, 0, width, height)),
		out:        image.NewRGBA(image.Rect(0, 0, width, height)),
		sink:       sink,
		brightness: 255,
	}
	c.Clear()
	return c
}

// Clear sets every pixel to opaque black.
func (c *Canvas) Clear() {
	clearFrame(c.RGBA)
}

func clearFrame(frame *image.RGBA) {
	for i := 0; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 0
		frame.Pix[i+1] = 0
		frame.Pix[i+2] = 0
		frame.Pix[i+3] = 255
	}
}

// SetBrightness sets the output scale, 255 being full.
func (c *Canvas) SetBrightness(b uint8) {
	c.mu.Lock()
	c.brightness = b
	c.mu.Unlock()
}

// SetOff blanks the output without touching the drawn frame.
func (c *Canvas) SetOff(off bool) {
	c.mu.Lock()
	c.off = off
	c.mu.Unlock()
}

// SetTap registers a sink that sees every frame before brightness is
// applied. Call it before the display loop starts.
func (c *Canvas) SetTap(t Sink) {
	c.tap = t
}

// Show scales the frame by brightness and sends it to the sink.
func (c *Canvas) Show() error {
	if c.tap != nil {
		if err := c.tap.Show(c.RGBA); err != nil {
			return err
		}
	}
	if c.sink == nil {
		return nil
	}
	c.mu.Lock()
	bri := uint16(c.brightness)
	if c.off {
		bri = 0
	}
	c.mu.Unlock()

	src, dst := c.RGBA.Pix, c.out.Pix
	for i := 0; i < len(src); i += 4 {
		dst[i] = uint8(uint16(src[i]) * bri / 255)
		dst[i+1] = uint8(uint16(src[i+1]) * bri / 255)
		dst[i+2] = uint8(uint16(src[i+2]) * bri / 255)
		dst[i+3] = 255
	}
	return c.sink.Show(c.out)
}
