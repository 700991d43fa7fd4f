// Command animpack converts PNG, JPEG, GIF and SVG images into the .anim
// icon format. Each input adds its frames in order.
//
//	animpack -o icons/weather.anim -delay 200 sun1.png sun2.png
package main

import (
	"bufio"
	"flag"
	"log"
	"os"

	"github.com/photonicat/pixel_matrix_display/internal/frameplayer"
)

func main() {
	out := flag.String("o", "out.anim", "output file")
	width := flag.Int("w", 8, "icon width")
	height := flag.Int("h", 8, "icon height")
	delay := flag.Int("delay", 0, "ms between frames (default: GIF delay, else 100)")
	smooth := flag.Bool("smooth", false, "smooth scaling instead of nearest neighbour")
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	h, frames, err := pack(flag.Args(), packOptions{Width: *width, Height: *height, Delay: *delay, Smooth: *smooth})
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	w := bufio.NewWriter(f)
	if err := frameplayer.WriteAnim(w, h, frames); err != nil {
		log.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s: %dx%d, %d frames, %dms", *out, h.Width, h.Height, h.Frames, h.Delay)
}
