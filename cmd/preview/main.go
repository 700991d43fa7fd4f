// Command preview runs the display loop in a desktop window. The arrow
// keys act as the panel buttons, space as select.
package main

import (
	"context"
	"flag"
	"image"
	"log"
	"os"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/photonicat/pixel_matrix_display/internal/apps"
	"github.com/photonicat/pixel_matrix_display/internal/config"
	"github.com/photonicat/pixel_matrix_display/internal/display"
	"github.com/photonicat/pixel_matrix_display/internal/liveview"
	"github.com/photonicat/pixel_matrix_display/internal/matrix"
	"github.com/photonicat/pixel_matrix_display/internal/periphery"
	"github.com/photonicat/pixel_matrix_display/internal/webui"
)

// windowSink keeps the latest frame for the window to draw.
type windowSink struct {
	mu    sync.Mutex
	frame *image.RGBA
	dirty bool
}

func (w *windowSink) Show(f *image.RGBA) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.frame == nil {
		w.frame = image.NewRGBA(f.Bounds())
	}
	copy(w.frame.Pix, f.Pix)
	w.dirty = true
	return nil
}

// take returns the frame when it changed since the last call.
func (w *windowSink) take() *image.RGBA {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty {
		return nil
	}
	w.dirty = false
	out := image.NewRGBA(w.frame.Bounds())
	copy(out.Pix, w.frame.Pix)
	return out
}

type game struct {
	mgr    *display.Manager
	sink   *windowSink
	scale  int
	width  int
	height int
	leds   *image.RGBA
}

var keys = map[ebiten.Key]periphery.Button{
	ebiten.KeyArrowLeft:  periphery.ButtonLeft,
	ebiten.KeyArrowRight: periphery.ButtonRight,
	ebiten.KeySpace:      periphery.ButtonSelect,
	ebiten.KeyEnter:      periphery.ButtonSelect,
}

func (g *game) Update() error {
	for k, b := range keys {
		if inpututil.IsKeyJustPressed(k) {
			g.mgr.HandleButton(b)
		}
	}
	g.mgr.Tick()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if f := g.sink.take(); f != nil {
		g.leds = liveview.Rasterize(f, g.scale)
	}
	if g.leds != nil {
		screen.WritePixels(g.leds.Pix)
	}
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.width * g.scale, g.height * g.scale
}

func main() {
	configPath := flag.String("config", "settings.yaml", "settings file")
	scale := flag.Int("scale", 24, "window pixels per LED")
	listen := flag.String("listen", "", "serve the control plane on this address")
	flag.Parse()
	if *scale < 2 || *scale > 64 {
		*scale = liveview.DefaultScale
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	store := config.NewStore(settings, *configPath)
	layout := matrix.LayoutFor(settings.Layout)

	sink := &windowSink{}
	canvas := matrix.NewCanvas(layout.PanelWidth(), layout.PanelHeight(), sink)
	lv := liveview.New(time.Duration(settings.Liveview.Interval) * time.Millisecond)
	canvas.SetTap(lv)

	shared := &periphery.Shared{}
	env := apps.Env{Sensors: shared, Now: time.Now}
	mgr := display.New(store, canvas, env, apps.NewNotifier(time.Now), os.DirFS(settings.Hardware.IconDir),
		display.WithLiveview(lv))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sensors := periphery.NewSensors(settings.Hardware.SensorKey, settings.Hardware.HumidityFile, 10*time.Second)
	go sensors.Run(ctx, shared)
	if *listen != "" {
		go func() {
			if err := webui.New(store, mgr, shared, lv).Listen(ctx, *listen); err != nil {
				log.Printf("[preview] control plane: %v", err)
			}
		}()
	}

	g := &game{mgr: mgr, sink: sink, scale: *scale, width: layout.PanelWidth(), height: layout.PanelHeight()}
	ebiten.SetWindowSize(g.width*g.scale, g.height*g.scale)
	ebiten.SetWindowTitle("pixel matrix preview")
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
