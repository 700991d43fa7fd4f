// Package frameplayer loads icons and short animations from an embedded
// table or from .anim files and draws them frame by frame.
//
// A Player owns one fixed pixel buffer and never allocates while drawing.
// Load failures are not reported as errors: the player keeps whatever it
// showed before (or stays idle), so callers keep rendering their text.
package frameplayer

import (
	"encoding/binary"
	"image/draw"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/photonicat/pixel_matrix_display/internal/matrix"
)

// IconDir is the directory inside the file source that holds .anim files.
const IconDir = "icons"

// Icon is one record of the embedded resource table.
type Icon struct {
	Width  uint8
	Height uint8
	Frames uint8
	Delay  uint16
	Data   []matrix.RGB565 // Frames * Width * Height pixels, row-major
}

func (i Icon) header() Header {
	return Header{Width: i.Width, Height: i.Height, Frames: i.Frames, Delay: i.Delay}
}

type source uint8

const (
	sourceNone source = iota
	sourceEmbedded
	sourceFile
)

var epoch = time.Now()

func monotonicMillis() int64 {
	return time.Since(epoch).Milliseconds()
}

// Player plays one resource at a time.
type Player struct {
	table []Icon
	fsys  fs.FS
	now   func() int64

	src  source
	id   string
	hdr  Header
	data []matrix.RGB565
	file io.ReadSeeker
	fc   io.Closer

	frame        int
	lastChange   int64
	staticLoaded bool

	buf [MaxPixels]matrix.RGB565
	raw [MaxPixels * BytesPerPixel]byte
}

type Option func(*Player)

// WithClock sets the millisecond clock used for frame timing.
func WithClock(now func() int64) Option {
	return func(p *Player) { p.now = now }
}

// New returns an idle player. table and fsys may be nil.
func New(table []Icon, fsys fs.FS, opts ...Option) *Player {
	p := &Player{table: table, fsys: fsys, now: monotonicMillis}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Loaded reports whether a resource is ready to draw.
func (p *Player) Loaded() bool { return p.src != sourceNone }

// ID is the identity of the loaded resource, "SYS:<n>" or "FS:<name>".
func (p *Player) ID() string { return p.id }

// Size returns the loaded resource dimensions, 0x0 when idle.
func (p *Player) Size() (int, int) {
	if p.src == sourceNone {
		return 0, 0
	}
	return int(p.hdr.Width), int(p.hdr.Height)
}

// LoadEmbedded loads entry index of the embedded table.
func (p *Player) LoadEmbedded(index int) bool {
	id := "SYS:" + strconv.Itoa(index)
	if p.id == id {
		return true
	}
	if index < 0 || index >= len(p.table) {
		return false
	}
	icon := p.table[index]
	h := icon.header()
	if !h.Valid() || len(icon.Data) < int(h.Frames)*h.PixelCount() {
		return false
	}

	p.cleanup()
	p.src = sourceEmbedded
	p.id = id
	p.hdr = h
	p.data = icon.Data
	return p.resetPlayback()
}

// LoadFile loads IconDir/name from the file source.
func (p *Player) LoadFile(name string) bool {
	id := "FS:" + name
	if p.id == id {
		return true
	}
	if p.fsys == nil || name == "" || strings.ContainsAny(name, `/\`) {
		return false
	}
	f, err := p.fsys.Open(path.Join(IconDir, name))
	if err != nil {
		return false
	}
	rs, ok := f.(io.ReadSeeker)
	if !ok {
		f.Close()
		return false
	}
	var b [HeaderSize]byte
	if _, err := io.ReadFull(rs, b[:]); err != nil {
		f.Close()
		return false
	}
	h := ParseHeader(b)
	if !h.Valid() {
		f.Close()
		return false
	}

	p.cleanup()
	p.src = sourceFile
	p.id = id
	p.hdr = h
	p.file = rs
	p.fc = f
	return p.resetPlayback()
}

// Close releases the loaded resource and leaves the player idle.
func (p *Player) Close() {
	p.cleanup()
}

// Draw advances the frame when its delay has elapsed and blits the
// buffer with its top-left corner at (x, y).
func (p *Player) Draw(dst draw.Image, x, y int) {
	if p.src == sourceNone {
		return
	}
	pc := p.hdr.PixelCount()
	if pc == 0 || pc > MaxPixels {
		return
	}

	if p.animated() {
		now := p.now()
		if now-p.lastChange >= int64(p.hdr.Delay) {
			p.lastChange = now
			p.frame = (p.frame + 1) % int(p.hdr.Frames)
			if !p.loadFrame() {
				return
			}
		}
	} else if !p.staticLoaded {
		if !p.loadFrame() {
			return
		}
		p.staticLoaded = true
	}

	w := int(p.hdr.Width)
	for i := 0; i < pc; i++ {
		dst.Set(x+i%w, y+i/w, p.buf[i])
	}
}

func (p *Player) animated() bool {
	return p.hdr.Frames > 1 && p.hdr.Delay > 0
}

func (p *Player) cleanup() {
	if p.fc != nil {
		p.fc.Close()
	}
	p.src = sourceNone
	p.id = ""
	p.hdr = Header{}
	p.data = nil
	p.file = nil
	p.fc = nil
	p.buf = [MaxPixels]matrix.RGB565{}
}

func (p *Player) resetPlayback() bool {
	p.frame = 0
	p.lastChange = p.now()
	p.staticLoaded = false
	if !p.loadFrame() {
		return false
	}
	p.staticLoaded = !p.animated()
	return true
}

// loadFrame fills the buffer with the current frame. A short read
// invalidates the resource.
func (p *Player) loadFrame() bool {
	pc := p.hdr.PixelCount()
	switch p.src {
	case sourceEmbedded:
		off := p.frame * pc
		copy(p.buf[:pc], p.data[off:off+pc])
		return true
	case sourceFile:
		size := pc * BytesPerPixel
		off := int64(HeaderSize + p.frame*size)
		if _, err := p.file.Seek(off, io.SeekStart); err != nil {
			p.cleanup()
			return false
		}
		if _, err := io.ReadFull(p.file, p.raw[:size]); err != nil {
			p.cleanup()
			return false
		}
		for i := 0; i < pc; i++ {
			p.buf[i] = matrix.RGB565(binary.LittleEndian.Uint16(p.raw[i*BytesPerPixel:]))
		}
		return true
	}
	return false
}
