package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"

	"github.com/photonicat/pixel_matrix_display/internal/frameplayer"
	"github.com/photonicat/pixel_matrix_display/internal/matrix"
)

// loadFrames decodes one input file. A GIF yields all its frames and its
// first frame delay in ms; other formats yield a single frame and 0.
func loadFrames(path string) ([]image.Image, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		img, err := png.Decode(bytes.NewReader(data))
		return single(img, err)
	case ".jpg", ".jpeg":
		img, err := jpeg.Decode(bytes.NewReader(data))
		return single(img, err)
	case ".svg":
		img, err := rasterSVG(data)
		return single(img, err)
	case ".gif":
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, 0, err
		}
		frames := composeGIF(g)
		delay := 0
		if len(g.Delay) > 0 {
			delay = g.Delay[0] * 10
		}
		return frames, delay, nil
	default:
		return nil, 0, fmt.Errorf("unsupported image type %q", ext)
	}
}

func single(img image.Image, err error) ([]image.Image, int, error) {
	if err != nil {
		return nil, 0, err
	}
	return []image.Image{img}, 0, nil
}

// rasterSVG renders an SVG at its view box size.
func rasterSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	w, h := int(icon.ViewBox.W), int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg has an empty view box")
	}
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return rgba, nil
}

// composeGIF flattens the GIF frames onto a running canvas, since each
// frame only holds the pixels that changed.
func composeGIF(g *gif.GIF) []image.Image {
	canvas := image.NewRGBA(image.Rect(0, 0, g.Config.Width, g.Config.Height))
	frames := make([]image.Image, 0, len(g.Image))
	for i, p := range g.Image {
		var prev *image.RGBA
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalPrevious {
			prev = image.NewRGBA(canvas.Bounds())
			copy(prev.Pix, canvas.Pix)
		}
		xdraw.Draw(canvas, p.Bounds(), p, p.Bounds().Min, xdraw.Over)
		out := image.NewRGBA(canvas.Bounds())
		copy(out.Pix, canvas.Pix)
		frames = append(frames, out)

		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				xdraw.Draw(canvas, p.Bounds(), image.Transparent, image.Point{}, xdraw.Src)
			case gif.DisposalPrevious:
				canvas = prev
			}
		}
	}
	return frames
}

// fit scales src to exactly w x h over black. Nearest neighbour keeps
// pixel art crisp; smooth uses Catmull-Rom.
func fit(src image.Image, w, h int, smooth bool) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, xdraw.Src)
	var scaler xdraw.Scaler = xdraw.NearestNeighbor
	if smooth {
		scaler = xdraw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// toRGB565 returns the frame's pixels row-major.
func toRGB565(img *image.RGBA) []matrix.RGB565 {
	b := img.Bounds()
	out := make([]matrix.RGB565, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, matrix.ToRGB565(img.RGBAAt(x, y)))
		}
	}
	return out
}

type packOptions struct {
	Width, Height int
	Delay         int // ms, 0 takes the GIF delay
	Smooth        bool
}

// pack converts the inputs, in order, into the frames of one resource.
func pack(inputs []string, o packOptions) (frameplayer.Header, [][]matrix.RGB565, error) {
	h := frameplayer.Header{Width: uint8(o.Width), Height: uint8(o.Height)}
	if o.Width <= 0 || o.Height <= 0 || o.Width > 255 || o.Height > 255 || o.Width*o.Height > frameplayer.MaxPixels {
		return h, nil, fmt.Errorf("size %dx%d exceeds %d pixels", o.Width, o.Height, frameplayer.MaxPixels)
	}
	var frames [][]matrix.RGB565
	delay := o.Delay
	for _, in := range inputs {
		imgs, d, err := loadFrames(in)
		if err != nil {
			return h, nil, fmt.Errorf("%s: %w", in, err)
		}
		if delay == 0 {
			delay = d
		}
		for _, img := range imgs {
			frames = append(frames, toRGB565(fit(img, o.Width, o.Height, o.Smooth)))
		}
	}
	if len(frames) == 0 {
		return h, nil, fmt.Errorf("no frames")
	}
	if len(frames) > 255 {
		return h, nil, fmt.Errorf("%d frames, at most 255 fit the header", len(frames))
	}
	if len(frames) > 1 && delay <= 0 {
		delay = 100
	}
	h.Frames = uint8(len(frames))
	h.Delay = uint16(min(delay, 0xffff))
	return h, frames, nil
}
