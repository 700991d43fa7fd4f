package apps

import (
	"image/color"
	"testing"
	"time"

	"github.com/photonicat/pixel_matrix_display/internal/config"
	"github.com/photonicat/pixel_matrix_display/internal/frameplayer"
	"github.com/photonicat/pixel_matrix_display/internal/matrix"
	"github.com/photonicat/pixel_matrix_display/internal/periphery"
	"github.com/photonicat/pixel_matrix_display/internal/ui"
)

type fixedSensors periphery.Snapshot

func (f fixedSensors) Snapshot() periphery.Snapshot { return periphery.Snapshot(f) }

// 2024-01-01 was a Monday.
var monday = time.Date(2024, 1, 1, 12, 34, 56, 0, time.UTC)

func clockAt(t time.Time) func() time.Time { return func() time.Time { return t } }

func render(t *testing.T, page ui.Page) *matrix.Canvas {
	t.Helper()
	c := matrix.NewCanvas(32, 8, nil)
	page.Render(c, ui.State{}, 0, 0, frameplayer.New(Icons, nil))
	return c
}

func at(c *matrix.Canvas, x, y int) matrix.RGB565 {
	return matrix.ToRGB565(c.RGBAAt(x, y))
}

func litIn(c *matrix.Canvas, x0, x1, y0, y1 int) bool {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if at(c, x, y) != 0 {
				return true
			}
		}
	}
	return false
}

func pageNamed(t *testing.T, pages []ui.Page, name string) ui.Page {
	t.Helper()
	for _, p := range pages {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no page %q", name)
	return ui.Page{}
}

func TestStrftime(t *testing.T) {
	ts := time.Date(2024, 3, 5, 9, 7, 3, 0, time.UTC)
	tests := []struct{ format, want string }{
		{"%H %M", "09 07"},
		{"%H:%M:%S", "09:07:03"},
		{"%I%p", "09AM"},
		{"%m/%d", "03/05"},
		{"%d.%m.", "05.03."},
		{"%e %b %Y", " 5 Mar 2024"},
		{"%a %y %j", "Tue 24 065"},
		{"100%%", "100%"},
		{"%q%", "%q%"},
	}
	for _, tt := range tests {
		if got := Strftime(tt.format, ts); got != tt.want {
			t.Errorf("Strftime(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
	if got := Strftime("%I %p", ts.Add(15*time.Hour)); got != "12 AM" {
		t.Errorf("midnight = %q, want 12 AM", got)
	}
}

func TestIconsAreValid(t *testing.T) {
	for i, icon := range Icons {
		h := frameplayer.Header{Width: icon.Width, Height: icon.Height, Frames: icon.Frames, Delay: icon.Delay}
		if !h.Valid() {
			t.Errorf("icon %d header %+v invalid", i, h)
		}
		if want := int(icon.Frames) * h.PixelCount(); len(icon.Data) != want {
			t.Errorf("icon %d has %d pixels, want %d", i, len(icon.Data), want)
		}
		if !frameplayer.New(Icons, nil).LoadEmbedded(i) {
			t.Errorf("icon %d does not load", i)
		}
	}
}

func TestPagesOrderAndFlags(t *testing.T) {
	s := config.Default()
	s.Time.Position = 3
	s.Hum.Position = 0
	s.Date.Show = false
	s.Temp.Duration = 2000
	pages := Pages(s, Env{Sensors: fixedSensors{}})

	var names []string
	for _, p := range pages {
		names = append(names, p.Name)
	}
	want := []string{"hum", "date", "temp", "time"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}
	if pages[1].Enabled {
		t.Error("date page should be disabled")
	}
	if pages[2].Duration != 2000 {
		t.Errorf("temp duration = %d, want 2000", pages[2].Duration)
	}
}

func TestTimePageWithIcon(t *testing.T) {
	s := config.Default()
	pages := Pages(s, Env{Sensors: fixedSensors{}, Now: clockAt(monday)})
	c := render(t, pageNamed(t, pages, "time"))

	if got := at(c, 2, 0); got != palette['y'] {
		t.Errorf("clock icon pixel = %#04x, want yellow", uint16(got))
	}
	if !litIn(c, textLeft, 31, 1, 5) {
		t.Error("no time text right of the icon")
	}
	active := matrix.HexOr(s.Clock.WeekdayActive, matrix.White)
	passive := matrix.HexOr(s.Clock.WeekdayInactive, matrix.White)
	if got := c.RGBAAt(10, 7); got != active {
		t.Errorf("monday segment = %v, want %v", got, active)
	}
	if got := c.RGBAAt(13, 7); got != passive {
		t.Errorf("tuesday segment = %v, want %v", got, passive)
	}
	if got := c.RGBAAt(12, 7); got != matrix.Black {
		t.Errorf("segment gap = %v, want black", got)
	}
}

func TestTimePageWideFormat(t *testing.T) {
	s := config.Default()
	s.Clock.TimeFormat = "%H:%M:%S"
	s.Clock.StartOnMonday = false
	pages := Pages(s, Env{Sensors: fixedSensors{}, Now: clockAt(monday)})
	c := render(t, pageNamed(t, pages, "time"))

	if litIn(c, 0, 31, 0, 0) {
		t.Error("wide time should not draw the icon")
	}
	// sunday first: monday is the second 3px segment
	active := matrix.HexOr(s.Clock.WeekdayActive, matrix.White)
	if got := c.RGBAAt(6, 7); got != active {
		t.Errorf("monday segment = %v, want %v", got, active)
	}
}

func TestTimeSeparatorBlinks(t *testing.T) {
	s := config.Default()
	s.Clock.TimeFormat = "%H:%M"
	draw := func(ts time.Time) string {
		pages := Pages(s, Env{Sensors: fixedSensors{}, Now: clockAt(ts)})
		return string(render(t, pageNamed(t, pages, "time")).Pix)
	}
	shown := draw(monday)                   // :56
	hidden := draw(monday.Add(time.Second)) // :57
	if shown != draw(monday) {
		t.Fatal("same second rendered differently")
	}
	if shown == hidden {
		t.Error("separator did not blink between seconds")
	}
}

func TestSensorPages(t *testing.T) {
	s := config.Default()
	empty := Pages(s, Env{Sensors: fixedSensors{}})
	full := Pages(s, Env{Sensors: fixedSensors{Temperature: 21.4, HasTemperature: true, Humidity: 48, HasHumidity: true}})

	for _, name := range []string{"temp", "hum"} {
		a := render(t, pageNamed(t, empty, name))
		b := render(t, pageNamed(t, full, name))
		if !litIn(a, 0, 7, 0, 7) {
			t.Errorf("%s page drew no icon", name)
		}
		if !litIn(b, textLeft, 31, 1, 5) {
			t.Errorf("%s page drew no value", name)
		}
		if string(a.Pix) == string(b.Pix) {
			t.Errorf("%s page ignores the reading", name)
		}
	}
	temp := render(t, pageNamed(t, full, "temp"))
	if got := at(temp, 3, 2); got != palette['o'] {
		t.Errorf("thermometer pixel = %#04x, want orange", uint16(got))
	}
}

func TestPageOffset(t *testing.T) {
	s := config.Default()
	page := pageNamed(t, Pages(s, Env{Sensors: fixedSensors{}, Now: clockAt(monday)}), "time")
	c := matrix.NewCanvas(32, 8, nil)
	page.Render(c, ui.State{}, 0, 8, frameplayer.New(Icons, nil))
	if litIn(c, 0, 31, 0, 7) {
		t.Error("page shifted off panel still drew pixels")
	}
}

func TestNotifier(t *testing.T) {
	now := monday
	n := NewNotifier(func() time.Time { return now })
	if n.Active() {
		t.Fatal("new notifier is active")
	}
	n.Push(Notification{Text: "HI", Duration: time.Second})
	if !n.Active() {
		t.Fatal("pushed notification not active")
	}

	c := matrix.NewCanvas(32, 8, nil)
	matrix.FillRect(c, 0, 0, 32, 8, matrix.White)
	n.Overlay(c, ui.State{}, frameplayer.New(Icons, nil))
	if got := at(c, 3, 0); got != palette['y'] {
		t.Errorf("bell pixel = %#04x, want yellow", uint16(got))
	}
	if got := c.RGBAAt(31, 7); got != matrix.Black {
		t.Errorf("overlay did not blank the panel: %v", got)
	}
	if !litIn(c, textLeft, 31, 1, 5) {
		t.Error("notification text missing")
	}

	now = now.Add(time.Second)
	if n.Active() {
		t.Error("notification outlived its duration")
	}
	c.Clear()
	n.Overlay(c, ui.State{}, frameplayer.New(Icons, nil))
	if litIn(c, 0, 31, 0, 7) {
		t.Error("expired notification still drawn")
	}
}

func TestNotifierScrolls(t *testing.T) {
	now := monday
	n := NewNotifier(func() time.Time { return now })
	n.Push(Notification{Text: "A LONG MESSAGE THAT SCROLLS", Color: color.RGBA{0, 255, 0, 255}})
	c := matrix.NewCanvas(32, 8, nil)
	p := frameplayer.New(Icons, nil)

	n.Overlay(c, ui.State{}, p)
	if n.scrollX != 32 {
		t.Fatalf("scroll start = %d, want 32", n.scrollX)
	}
	now = now.Add(5 * scrollStep)
	n.Overlay(c, ui.State{}, p)
	if n.scrollX != 27 {
		t.Errorf("after 5 steps scrollX = %d, want 27", n.scrollX)
	}

	// at the left edge the text stays out of the icon area
	now = now.Add(27 * scrollStep)
	n.Overlay(c, ui.State{}, p)
	green := matrix.ToRGB565(color.RGBA{0, 255, 0, 255})
	for y := 0; y < 8; y++ {
		for x := 0; x < textLeft-1; x++ {
			if at(c, x, y) == green {
				t.Fatalf("scrolling text leaked into the icon area at (%d,%d)", x, y)
			}
		}
	}

	// scrolls off the left edge and wraps to the right
	now = now.Add(time.Duration(n.width-textLeft+2) * scrollStep)
	n.Overlay(c, ui.State{}, p)
	if n.scrollX != 32 {
		t.Errorf("after wrapping scrollX = %d, want 32", n.scrollX)
	}
}

func TestSpectrum(t *testing.T) {
	now := monday
	snap := fixedSensors{SpectrumAt: now}
	snap.Spectrum[0] = 255
	snap.Spectrum[1] = 128
	snap.Spectrum[2] = 1
	overlay := Spectrum(snap, func() time.Time { return now })

	c := matrix.NewCanvas(32, 8, nil)
	overlay(c, ui.State{}, nil)
	heights := []int{7, 4, 1, 0}
	for x, want := range heights {
		got := 0
		for y := 0; y < 8; y++ {
			if at(c, x, y) != 0 {
				got++
			}
		}
		if got != want {
			t.Errorf("band %d height = %d, want %d", x, got, want)
		}
	}

	stale := Spectrum(snap, func() time.Time { return now.Add(3 * time.Second) })
	c2 := matrix.NewCanvas(32, 8, nil)
	matrix.FillRect(c2, 0, 0, 32, 8, matrix.White)
	stale(c2, ui.State{}, nil)
	if got := c2.RGBAAt(5, 5); got != matrix.White {
		t.Error("stale spectrum overwrote the page")
	}
}

func TestOffline(t *testing.T) {
	tests := []struct {
		snap fixedSensors
		lit  bool
	}{
		{fixedSensors{}, false},
		{fixedSensors{Checked: true, Online: true}, false},
		{fixedSensors{Checked: true}, true},
	}
	for _, tt := range tests {
		c := matrix.NewCanvas(32, 8, nil)
		Offline(tt.snap)(c, ui.State{}, nil)
		if lit := at(c, 31, 0) != 0; lit != tt.lit {
			t.Errorf("snapshot %+v: indicator lit = %v, want %v", tt.snap, lit, tt.lit)
		}
	}
}

func TestOverlaysOrder(t *testing.T) {
	s := config.Default()
	env := Env{Sensors: fixedSensors{}}
	if got := len(Overlays(s, env, NewNotifier(nil))); got != 3 {
		t.Errorf("overlays with spectrum = %d, want 3", got)
	}
	s.Spectrum = false
	if got := len(Overlays(s, env, NewNotifier(nil))); got != 2 {
		t.Errorf("overlays without spectrum = %d, want 2", got)
	}
}
