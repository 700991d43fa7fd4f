package liveview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	svg "github.com/ajstarks/svgo"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
)

var (
	background = color.RGBA{16, 16, 16, 255}
	unlit      = color.RGBA{32, 32, 32, 255}
)

// DefaultScale is the size of one LED in rendered previews.
const DefaultScale = 10

func clampScale(scale int) int {
	if scale < 2 {
		return DefaultScale
	}
	if scale > 64 {
		return 64
	}
	return scale
}

func ledColor(c color.RGBA) color.RGBA {
	if c.R == 0 && c.G == 0 && c.B == 0 {
		return unlit
	}
	return color.RGBA{c.R, c.G, c.B, 255}
}

// Rasterize draws the frame as round LEDs, scale pixels apart.
func Rasterize(frame *image.RGBA, scale int) *image.RGBA {
	scale = clampScale(scale)
	b := frame.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))

	gc := draw2dimg.NewGraphicContext(out)
	gc.SetFillColor(background)
	draw2dkit.Rectangle(gc, 0, 0, float64(b.Dx()*scale), float64(b.Dy()*scale))
	gc.Fill()

	r := float64(scale) * 0.4
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gc.SetFillColor(ledColor(frame.RGBAAt(b.Min.X+x, b.Min.Y+y)))
			cx := float64(x*scale) + float64(scale)/2
			cy := float64(y*scale) + float64(scale)/2
			draw2dkit.Circle(gc, cx, cy, r)
			gc.Fill()
		}
	}
	return out
}

// RenderPNG writes the frame as a PNG of round LEDs.
func RenderPNG(w io.Writer, frame *image.RGBA, scale int) error {
	if err := png.Encode(w, Rasterize(frame, scale)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// RenderSVG writes the frame as an SVG document with one circle per LED.
func RenderSVG(w io.Writer, frame *image.RGBA, scale int) {
	scale = clampScale(scale)
	b := frame.Bounds()
	width, height := b.Dx()*scale, b.Dy()*scale

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:"+hex(background))
	r := scale * 2 / 5
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := ledColor(frame.RGBAAt(b.Min.X+x, b.Min.Y+y))
			canvas.Circle(x*scale+scale/2, y*scale+scale/2, r, "fill:"+hex(c))
		}
	}
	canvas.End()
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
