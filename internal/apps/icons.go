package apps

import (
	"fmt"

	"github.com/photonicat/pixel_matrix_display/internal/frameplayer"
	"github.com/photonicat/pixel_matrix_display/internal/matrix"
)

// Indices into Icons.
const (
	IconClock = iota
	IconCalendar
	IconThermometer
	IconDrop
	IconBell
)

var palette = map[byte]matrix.RGB565{
	'.': 0,
	'w': matrix.Pack565(255, 255, 255),
	'g': matrix.Pack565(90, 90, 90),
	'r': matrix.Pack565(230, 40, 30),
	'o': matrix.Pack565(255, 100, 0),
	'y': matrix.Pack565(255, 200, 0),
	'b': matrix.Pack565(0, 110, 255),
	'c': matrix.Pack565(120, 220, 255),
}

// Icons is the built-in resource table.
var Icons = []frameplayer.Icon{
	IconClock: art(1000,
		[]string{
			"..yyyy..",
			".y....y.",
			"y...w..y",
			"y...w..y",
			"y...ww.y",
			"y......y",
			".y....y.",
			"..yyyy..",
		},
		[]string{
			"..yyyy..",
			".y....y.",
			"y...w..y",
			"y...w..y",
			"y...w..y",
			"y...w..y",
			".y....y.",
			"..yyyy..",
		},
	),
	IconCalendar: art(0, []string{
		"rrrrrrrr",
		"rwrrrrwr",
		"wwwwwwww",
		"wgwgwgww",
		"wwwwwwww",
		"wgwgwgww",
		"wwwwwwww",
		"wwwwwwww",
	}),
	IconThermometer: art(0, []string{
		"...w....",
		"..w.w...",
		"..wow...",
		"..wow...",
		"..wow...",
		".wooow..",
		".wooow..",
		"..www...",
	}),
	IconDrop: art(0, []string{
		"...b....",
		"...b....",
		"..bbb...",
		"..bbb...",
		".bbcbb..",
		".bcbbb..",
		".bbbbb..",
		"..bbb...",
	}),
	IconBell: art(300,
		[]string{
			"...y....",
			"..yyy...",
			".yyyyy..",
			".yyyyy..",
			".yyyyy..",
			"yyyyyyy.",
			"...y....",
			"........",
		},
		[]string{
			"....y...",
			"...yyy..",
			"..yyyyy.",
			"..yyyyy.",
			"..yyyyy.",
			".yyyyyyy",
			"....y...",
			"........",
		},
	),
}

// art builds an icon from rows of palette characters. Every frame must
// have the same size.
func art(delay uint16, frames ...[]string) frameplayer.Icon {
	h := len(frames[0])
	w := len(frames[0][0])
	icon := frameplayer.Icon{
		Width:  uint8(w),
		Height: uint8(h),
		Frames: uint8(len(frames)),
		Delay:  delay,
		Data:   make([]matrix.RGB565, 0, w*h*len(frames)),
	}
	for fi, rows := range frames {
		if len(rows) != h {
			panic(fmt.Sprintf("icon frame %d has %d rows, want %d", fi, len(rows), h))
		}
		for _, row := range rows {
			if len(row) != w {
				panic(fmt.Sprintf("icon row %q is not %d wide", row, w))
			}
			for i := 0; i < w; i++ {
				c, ok := palette[row[i]]
				if !ok {
					panic(fmt.Sprintf("icon colour %q not in palette", row[i]))
				}
				icon.Data = append(icon.Data, c)
			}
		}
	}
	return icon
}
