// Package liveview samples the frames the display loop shows so the
// control plane can mirror the panel.
package liveview

import (
	"hash/crc32"
	"image"
	"sync"
	"time"
)

// Prefix starts every packed frame.
const Prefix = "LV:"

// Sampler is a matrix sink that keeps the latest frame, at most once per
// interval, and only when its content changed.
type Sampler struct {
	mu       sync.Mutex
	enabled  bool
	interval time.Duration
	now      func() time.Time

	last    time.Time
	crc     uint32
	seq     uint64
	scratch []byte
	packed  []byte
	img     *image.RGBA
}

type Option func(*Sampler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) { s.now = now }
}

// New returns an enabled sampler.
func New(interval time.Duration, opts ...Option) *Sampler {
	s := &Sampler{enabled: true, interval: interval, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Configure applies the liveview settings. Disabling drops the held frame.
func (s *Sampler) Configure(enabled bool, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled, s.interval = enabled, interval
	if !enabled {
		s.packed, s.img, s.crc = nil, nil, 0
	}
}

// Show samples frame. It never fails; the error is for matrix.Sink.
func (s *Sampler) Show(frame *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return nil
	}
	now := s.now()
	if s.seq > 0 && now.Sub(s.last) < s.interval {
		return nil
	}
	s.last = now

	b := frame.Bounds()
	s.scratch = pack(s.scratch[:0], frame)
	crc := crc32.ChecksumIEEE(s.scratch[len(Prefix):])
	if s.packed != nil && crc == s.crc {
		return nil
	}
	s.crc = crc
	s.packed = append(s.packed[:0], s.scratch...)
	if s.img == nil || s.img.Bounds() != b {
		s.img = image.NewRGBA(b)
	}
	copy(s.img.Pix, frame.Pix)
	s.seq++
	return nil
}

// pack appends the prefix and the frame as row-major RGB triplets.
func pack(dst []byte, frame *image.RGBA) []byte {
	dst = append(dst, Prefix...)
	b := frame.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := frame.PixOffset(x, y)
			dst = append(dst, frame.Pix[i], frame.Pix[i+1], frame.Pix[i+2])
		}
	}
	return dst
}

// Frame returns a copy of the latest packed frame and its sequence
// number. It returns nil before the first sample.
func (s *Sampler) Frame() ([]byte, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.packed == nil {
		return nil, s.seq
	}
	return append([]byte(nil), s.packed...), s.seq
}

// Image returns a copy of the latest frame, or nil.
func (s *Sampler) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil
	}
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}
