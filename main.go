package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/photonicat/pixel_matrix_display/internal/apps"
	"github.com/photonicat/pixel_matrix_display/internal/config"
	"github.com/photonicat/pixel_matrix_display/internal/display"
	"github.com/photonicat/pixel_matrix_display/internal/liveview"
	"github.com/photonicat/pixel_matrix_display/internal/matrix"
	"github.com/photonicat/pixel_matrix_display/internal/periphery"
	"github.com/photonicat/pixel_matrix_display/internal/sinks"
	"github.com/photonicat/pixel_matrix_display/internal/webui"
)

const sensorInterval = 10 * time.Second

// ledStrip is the hardware sink: it shows frames, follows the layout
// setting and blanks on Close.
type ledStrip interface {
	matrix.Sink
	display.Wiring
	io.Closer
}

var openStrip = func(port string, layout matrix.Layout) (ledStrip, error) {
	s, err := sinks.OpenSPI(port, layout)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
	log.Println("[main] stopped")
}

// run returns instead of exiting so the strip is blanked and the signal
// handler released on every path.
func run(args []string) error {
	fl := flag.NewFlagSet("pixel-matrix", flag.ContinueOnError)
	configPath := fl.String("config", "/etc/pixel-matrix/settings.yaml", "settings file")
	terminal := fl.Bool("terminal", false, "draw frames in the terminal instead of the LED strip")
	if err := fl.Parse(args); err != nil {
		return err
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store := config.NewStore(settings, *configPath)
	hw := settings.Hardware
	layout := matrix.LayoutFor(settings.Layout)

	var sink matrix.Sink
	opts := []display.Option{}
	if !*terminal {
		strip, err := openStrip(hw.SPIPort, layout)
		if err != nil {
			log.Printf("[main] LED strip unavailable, drawing in the terminal: %v", err)
		} else {
			defer func() {
				if err := strip.Close(); err != nil {
					log.Printf("[main] close strip: %v", err)
				}
			}()
			sink = strip
			opts = append(opts, display.WithWiring(strip))
		}
	}
	if sink == nil {
		sink = sinks.NewTerminal(os.Stdout)
	}

	canvas := matrix.NewCanvas(layout.PanelWidth(), layout.PanelHeight(), sink)
	lv := liveview.New(time.Duration(settings.Liveview.Interval) * time.Millisecond)
	canvas.SetTap(lv)

	shared := &periphery.Shared{}
	env := apps.Env{Sensors: shared, Now: time.Now}
	opts = append(opts, display.WithLiveview(lv))
	mgr := display.New(store, canvas, env, apps.NewNotifier(time.Now), os.DirFS(hw.IconDir), opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return mgr.Run(ctx) })
	g.Go(func() error {
		return periphery.NewSensors(hw.SensorKey, hw.HumidityFile, sensorInterval).Run(ctx, shared)
	})
	if hw.PingHost != "" {
		g.Go(func() error {
			interval := time.Duration(hw.PingInterval) * time.Second
			return periphery.NewConnectivity(hw.PingHost, interval).Run(ctx, shared)
		})
	}
	g.Go(func() error {
		// the panel runs without buttons; a missing device is not fatal
		if err := periphery.NewButtons(hw.ButtonDevice).Run(ctx, mgr.HandleButton); err != nil {
			log.Printf("[main] buttons disabled: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		return webui.New(store, mgr, shared, lv).Listen(ctx, hw.Listen)
	})
	return g.Wait()
}
