// Package apps holds the native pages and overlays drawn by the
// scheduler, and the built-in icon table.
package apps

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/photonicat/pixel_matrix_display/internal/config"
	"github.com/photonicat/pixel_matrix_display/internal/frameplayer"
	"github.com/photonicat/pixel_matrix_display/internal/matrix"
	"github.com/photonicat/pixel_matrix_display/internal/periphery"
	"github.com/photonicat/pixel_matrix_display/internal/ui"
)

// Sensors supplies the readings shown by the temperature and humidity
// pages.
type Sensors interface {
	Snapshot() periphery.Snapshot
}

// Env is what pages read besides their settings.
type Env struct {
	Sensors Sensors
	Now     func() time.Time
}

const (
	iconWidth = 8
	textLeft  = 10 // first text column next to an icon
	textRoom  = 22 // columns right of the icon
	baseline  = 6
	barRow    = 7
)

// Pages builds the native page list from a settings snapshot, ordered by
// position.
func Pages(s config.Settings, env Env) []ui.Page {
	if env.Now == nil {
		env.Now = time.Now
	}
	text := matrix.HexOr(s.TextColor, matrix.White)
	pages := []ui.Page{
		{Name: "time", Render: timePage(s, env, text), Enabled: s.Time.Show, Position: s.Time.Position, Duration: s.Time.Duration},
		{Name: "date", Render: datePage(s, env, text), Enabled: s.Date.Show, Position: s.Date.Position, Duration: s.Date.Duration},
		{Name: "temp", Render: tempPage(s.Temp, env, text), Enabled: s.Temp.Show, Position: s.Temp.Position, Duration: s.Temp.Duration},
		{Name: "hum", Render: humPage(s.Hum, env, text), Enabled: s.Hum.Show, Position: s.Hum.Position, Duration: s.Hum.Duration},
	}
	ui.SortPages(pages)
	return pages
}

func timePage(s config.Settings, env Env, text color.RGBA) ui.RenderFunc {
	clr := matrix.HexOr(s.Time.Color, text)
	bar := newWeekdayBar(s.Clock)
	return func(dst ui.Surface, _ ui.State, x, y int, p *frameplayer.Player) {
		now := env.Now()
		format := s.Clock.TimeFormat
		// blink the separator on odd seconds unless seconds are shown
		if now.Unix()%2 == 1 && len(format) < 8 {
			format = strings.Replace(format, ":", " ", 1)
		}
		str := Strftime(format, now)
		withIcon := matrix.TextWidth(str) <= textRoom
		if withIcon {
			loadIcon(p, s.Time.Icon, IconClock)
			p.Draw(dst, x, y)
		}
		textBlock(dst, x, y, str, clr, withIcon, 0)
		bar.draw(dst, x, y, now, withIcon)
	}
}

func datePage(s config.Settings, env Env, text color.RGBA) ui.RenderFunc {
	clr := matrix.HexOr(s.Date.Color, text)
	bar := newWeekdayBar(s.Clock)
	nudge := 0
	if strings.Contains(s.Clock.DateFormat, ".") {
		nudge = 1 // "DD.MM." sits too close to the icon
	}
	return func(dst ui.Surface, _ ui.State, x, y int, p *frameplayer.Player) {
		now := env.Now()
		str := Strftime(s.Clock.DateFormat, now)
		withIcon := matrix.TextWidth(str) <= textRoom+2
		if withIcon {
			loadIcon(p, s.Date.Icon, IconCalendar)
			p.Draw(dst, x, y)
		}
		textBlock(dst, x, y, str, clr, withIcon, nudge)
		bar.draw(dst, x, y, now, withIcon)
	}
}

func tempPage(a config.AppSettings, env Env, text color.RGBA) ui.RenderFunc {
	clr := matrix.HexOr(a.Color, text)
	return func(dst ui.Surface, _ ui.State, x, y int, p *frameplayer.Player) {
		str := "--°C"
		if snap := env.Sensors.Snapshot(); snap.HasTemperature {
			str = fmt.Sprintf("%.0f°C", snap.Temperature)
		}
		loadIcon(p, a.Icon, IconThermometer)
		p.Draw(dst, x, y)
		textBlock(dst, x, y, str, clr, true, 0)
	}
}

func humPage(a config.AppSettings, env Env, text color.RGBA) ui.RenderFunc {
	clr := matrix.HexOr(a.Color, text)
	return func(dst ui.Surface, _ ui.State, x, y int, p *frameplayer.Player) {
		str := "--%"
		if snap := env.Sensors.Snapshot(); snap.HasHumidity {
			str = fmt.Sprintf("%.0f%%", snap.Humidity)
		}
		loadIcon(p, a.Icon, IconDrop)
		p.Draw(dst, x, y)
		textBlock(dst, x, y, str, clr, true, 0)
	}
}

// loadIcon prefers the configured file and falls back to the built-in
// icon when it cannot be loaded.
func loadIcon(p *frameplayer.Player, file string, builtin int) {
	if file != "" && p.LoadFile(file) {
		return
	}
	p.LoadEmbedded(builtin)
}

// textBlock centres text right of the icon, or across the panel.
func textBlock(dst ui.Surface, x, y int, str string, clr color.Color, withIcon bool, nudge int) {
	if withIcon {
		tx := textLeft + (textRoom-matrix.TextWidth(str))/2 + nudge
		matrix.PrintText(dst, tx+x, baseline+y, str, clr, false)
		return
	}
	matrix.PrintText(dst, x, baseline+y, str, clr, true)
}

type weekdayBar struct {
	show           bool
	offset         int
	active, passive color.RGBA
}

func newWeekdayBar(c config.ClockSettings) weekdayBar {
	b := weekdayBar{
		show:    c.ShowWeekday,
		active:  matrix.HexOr(c.WeekdayActive, matrix.White),
		passive: matrix.HexOr(c.WeekdayInactive, matrix.Black),
	}
	if !c.StartOnMonday {
		b.offset = 1
	}
	return b
}

// draw puts seven segments on the bottom row, the current day lit. Next
// to an icon the segments are 2px wide, otherwise 3px.
func (b weekdayBar) draw(dst ui.Surface, x, y int, now time.Time, withIcon bool) {
	if !b.show {
		return
	}
	start, width := 2, 3
	if withIcon {
		start, width = textLeft, 2
	}
	today := (int(now.Weekday()) + 6 + b.offset) % 7
	for i := 0; i < 7; i++ {
		clr := b.passive
		if i == today {
			clr = b.active
		}
		x0 := start + i*(width+1)
		matrix.HLine(dst, x0+x, x0+width-1+x, barRow+y, clr)
	}
}
