package frameplayer

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/photonicat/pixel_matrix_display/internal/matrix"
)

const (
	// MaxPixels is the largest icon (width*height) a player can buffer.
	MaxPixels     = 256
	HeaderSize    = 5
	BytesPerPixel = 2
)

// Header is the fixed prefix of an .anim file:
// [width][height][frames][delay low][delay high].
type Header struct {
	Width  uint8
	Height uint8
	Frames uint8
	Delay  uint16 // ms between frames, little endian on disk
}

// ParseHeader decodes the 5 header bytes.
func ParseHeader(b [HeaderSize]byte) Header {
	return Header{
		Width:  b[0],
		Height: b[1],
		Frames: b[2],
		Delay:  binary.LittleEndian.Uint16(b[3:5]),
	}
}

// Bytes encodes the header.
func (h Header) Bytes() [HeaderSize]byte {
	var b [HeaderSize]byte
	b[0], b[1], b[2] = h.Width, h.Height, h.Frames
	binary.LittleEndian.PutUint16(b[3:5], h.Delay)
	return b
}

func (h Header) PixelCount() int {
	return int(h.Width) * int(h.Height)
}

// FrameSize is the size of one frame on disk.
func (h Header) FrameSize() int {
	return h.PixelCount() * BytesPerPixel
}

// Valid reports whether a player can hold the resource.
func (h Header) Valid() bool {
	pc := h.PixelCount()
	return pc > 0 && pc <= MaxPixels && h.Frames > 0
}

// WriteAnim writes an .anim file. Every frame must hold exactly
// Width*Height pixels.
func WriteAnim(w io.Writer, h Header, frames [][]matrix.RGB565) error {
	if int(h.Frames) != len(frames) {
		return fmt.Errorf("header declares %d frames, got %d", h.Frames, len(frames))
	}
	hdr := h.Bytes()
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	buf := make([]byte, h.FrameSize())
	for i, f := range frames {
		if len(f) != h.PixelCount() {
			return fmt.Errorf("frame %d has %d pixels, want %d", i, len(f), h.PixelCount())
		}
		for j, px := range f {
			binary.LittleEndian.PutUint16(buf[j*BytesPerPixel:], uint16(px))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write frame %d: %w", i, err)
		}
	}
	return nil
}
