// Package sinks holds the pixel-buffer drivers frames are shown on.
package sinks

import (
	"fmt"
	"image"
	"io"
	"log"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/photonicat/pixel_matrix_display/internal/matrix"
)

// LEDStrip reorders frames into strip order for the panel wiring and
// writes them as packed RGB.
type LEDStrip struct {
	mu     sync.Mutex
	layout matrix.Layout
	w      io.Writer
	buf    []byte
}

func NewLEDStrip(layout matrix.Layout, w io.Writer) *LEDStrip {
	return &LEDStrip{layout: layout, w: w, buf: make([]byte, layout.NumPixels()*3)}
}

// SetLayout changes the wiring for the following frames.
func (s *LEDStrip) SetLayout(l matrix.Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l == s.layout {
		return
	}
	s.layout = l
	if n := l.NumPixels() * 3; n != len(s.buf) {
		s.buf = make([]byte, n)
	}
}

func (s *LEDStrip) Show(frame *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := frame.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := s.layout.Index(x, y)
			if i < 0 {
				continue
			}
			o := frame.PixOffset(b.Min.X+x, b.Min.Y+y)
			copy(s.buf[i*3:i*3+3], frame.Pix[o:o+3])
		}
	}
	if _, err := s.w.Write(s.buf); err != nil {
		return fmt.Errorf("write strip: %w", err)
	}
	return nil
}

// SPIStrip is an LED strip driven as WS2812 over an SPI port.
type SPIStrip struct {
	*LEDStrip
	port io.Closer
	dev  *nrzled.Dev
}

// OpenSPI initialises the host drivers and opens the WS2812 strip on
// port ("" picks the first SPI port).
func OpenSPI(port string, layout matrix.Layout) (*SPIStrip, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", port, err)
	}
	dev, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: layout.NumPixels(),
		Channels:  3,
		Freq:      800 * physic.KiloHertz,
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	log.Printf("[sinks] ws2812 strip on %s, %d pixels", dev, layout.NumPixels())
	return &SPIStrip{LEDStrip: NewLEDStrip(layout, dev), port: p, dev: dev}, nil
}

// Close blanks the strip and releases the port.
func (s *SPIStrip) Close() error {
	if err := s.dev.Halt(); err != nil {
		log.Printf("[sinks] halt strip: %v", err)
	}
	return s.port.Close()
}
