package apps

import (
	"image/color"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/photonicat/pixel_matrix_display/internal/config"
	"github.com/photonicat/pixel_matrix_display/internal/frameplayer"
	"github.com/photonicat/pixel_matrix_display/internal/matrix"
	"github.com/photonicat/pixel_matrix_display/internal/ui"
)

const (
	scrollStep      = 50 * time.Millisecond
	spectrumTimeout = 2 * time.Second
	DefaultNotify   = 5 * time.Second
)

// Notification is a message shown over the pages until it expires.
type Notification struct {
	Text     string
	Color    color.RGBA
	Icon     string // .anim file, empty for the built-in bell
	Duration time.Duration
}

// Notifier holds the active notification. Push may be called from any
// goroutine; Overlay runs on the display loop.
type Notifier struct {
	mu      sync.Mutex
	n       Notification
	until   time.Time
	scrollX int
	placed  bool
	width   int
	stepped time.Time
	now     func() time.Time
}

func NewNotifier(now func() time.Time) *Notifier {
	if now == nil {
		now = time.Now
	}
	return &Notifier{now: now}
}

// Push replaces any active notification.
func (n *Notifier) Push(msg Notification) {
	if msg.Duration <= 0 {
		msg.Duration = DefaultNotify
	}
	if msg.Color == (color.RGBA{}) {
		msg.Color = matrix.White
	}
	now := n.now()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.n = msg
	n.until = now.Add(msg.Duration)
	n.width = matrix.TextWidth(msg.Text)
	n.placed = false
	n.stepped = now
}

// Active reports whether a notification is showing.
func (n *Notifier) Active() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.activeLocked(n.now())
}

func (n *Notifier) activeLocked(now time.Time) bool {
	return n.n.Text != "" && now.Before(n.until)
}

// Overlay blanks the panel and shows the notification: bell or custom
// icon on the left, text centred when it fits, scrolling otherwise.
func (n *Notifier) Overlay(dst ui.Surface, _ ui.State, p *frameplayer.Player) {
	now := n.now()
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.activeLocked(now) {
		return
	}
	w := dst.Bounds().Dx()
	matrix.FillRect(dst, 0, 0, w, dst.Bounds().Dy(), matrix.Black)

	room := w - textLeft
	if n.width <= room {
		tx := textLeft + (room-n.width)/2
		matrix.PrintText(dst, tx, baseline, n.n.Text, n.n.Color, false)
	} else {
		if !n.placed {
			n.scrollX, n.placed = w, true
		}
		for now.Sub(n.stepped) >= scrollStep {
			n.stepped = n.stepped.Add(scrollStep)
			n.scrollX--
			if n.scrollX < textLeft-1-n.width {
				n.scrollX = w
			}
		}
		matrix.PrintText(dst, n.scrollX, baseline, n.n.Text, n.n.Color, false)
		// keep scrolled text out of the icon area
		matrix.FillRect(dst, 0, 0, textLeft-1, dst.Bounds().Dy(), matrix.Black)
	}
	loadIcon(p, n.n.Icon, IconBell)
	p.Draw(dst, 0, 0)
}

// Spectrum draws the 32 band audio levels as bottom-up bars while fresh
// data keeps arriving.
func Spectrum(sensors Sensors, now func() time.Time) ui.OverlayFunc {
	if now == nil {
		now = time.Now
	}
	var hues [32]color.RGBA
	for i := range hues {
		c := colorful.Hsv(float64(i)*360/float64(len(hues)), 1, 1).Clamped()
		r, g, b := c.RGB255()
		hues[i] = color.RGBA{r, g, b, 255}
	}
	return func(dst ui.Surface, _ ui.State, _ *frameplayer.Player) {
		snap := sensors.Snapshot()
		if !snap.SpectrumActive(now(), spectrumTimeout) {
			return
		}
		b := dst.Bounds()
		matrix.FillRect(dst, 0, 0, b.Dx(), b.Dy(), matrix.Black)
		for x := 0; x < b.Dx() && x < len(snap.Spectrum); x++ {
			h := int(snap.Spectrum[x]) * b.Dy() / 256
			if snap.Spectrum[x] > 0 && h == 0 {
				h = 1
			}
			for y := b.Dy() - h; y < b.Dy(); y++ {
				dst.Set(x, y, hues[x])
			}
		}
	}
}

// Offline marks the top right pixel red while the network probe fails.
func Offline(sensors Sensors) ui.OverlayFunc {
	red := color.RGBA{200, 0, 0, 255}
	return func(dst ui.Surface, _ ui.State, _ *frameplayer.Player) {
		if s := sensors.Snapshot(); s.Checked && !s.Online {
			dst.Set(dst.Bounds().Dx()-1, 0, red)
		}
	}
}

// Overlays returns the overlay stack in drawing order.
func Overlays(s config.Settings, env Env, n *Notifier) []ui.OverlayFunc {
	list := []ui.OverlayFunc{n.Overlay}
	if s.Spectrum {
		list = append(list, Spectrum(env.Sensors, env.Now))
	}
	return append(list, Offline(env.Sensors))
}
