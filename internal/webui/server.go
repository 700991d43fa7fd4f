// Package webui serves the HTTP control plane and the liveview mirror.
package webui

import (
	"bytes"
	"context"
	"image"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/photonicat/pixel_matrix_display/internal/apps"
	"github.com/photonicat/pixel_matrix_display/internal/config"
	"github.com/photonicat/pixel_matrix_display/internal/display"
	"github.com/photonicat/pixel_matrix_display/internal/liveview"
	"github.com/photonicat/pixel_matrix_display/internal/matrix"
	"github.com/photonicat/pixel_matrix_display/internal/periphery"
)

// Controller is the part of the display manager the routes drive.
type Controller interface {
	Next() bool
	Previous() bool
	SwitchTo(i int) bool
	JumpTo(i int) bool
	Notify(n apps.Notification)
	Status() display.Status
}

// Frames is the liveview sampler.
type Frames interface {
	Frame() ([]byte, uint64)
	Image() *image.RGBA
}

type Server struct {
	app     *fiber.App
	store   *config.Store
	ctl     Controller
	shared  *periphery.Shared
	frames  Frames
	now     func() time.Time
	sysinfo func(context.Context) periphery.SystemStats
}

type Option func(*Server)

// WithClock replaces time.Now for spectrum timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithSystemStats replaces the host probe behind /api/stats.
func WithSystemStats(fn func(context.Context) periphery.SystemStats) Option {
	return func(s *Server) { s.sysinfo = fn }
}

func New(store *config.Store, ctl Controller, shared *periphery.Shared, frames Frames, opts ...Option) *Server {
	s := &Server{
		app:     fiber.New(fiber.Config{DisableStartupMessage: true}),
		store:   store,
		ctl:     ctl,
		shared:  shared,
		frames:  frames,
		now:     time.Now,
		sysinfo: periphery.ReadSystemStats,
	}
	for _, o := range opts {
		o(s)
	}

	api := s.app.Group("/api")
	api.Get("/stats", s.stats)
	api.Get("/settings", s.getSettings)
	api.Post("/settings", s.postSettings)
	api.Post("/apps", s.postApps)
	api.Post("/next", s.next)
	api.Post("/previous", s.previous)
	api.Post("/switch/:index", s.switchTo)
	api.Post("/notify", s.notify)
	api.Post("/spectrum", s.spectrum)
	api.Get("/liveview", s.liveviewRaw)
	api.Get("/liveview.png", s.liveviewPNG)
	api.Get("/liveview.svg", s.liveviewSVG)
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until ctx is done.
func (s *Server) Listen(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			log.Printf("[webui] shutdown: %v", err)
		}
	}()
	log.Println("[webui] listening on", addr)
	return s.app.Listen(addr)
}

type sensorStats struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Online      bool     `json:"online"`
}

type statsResponse struct {
	Display display.Status        `json:"display"`
	System  periphery.SystemStats `json:"system"`
	Sensors sensorStats           `json:"sensors"`
}

func (s *Server) stats(c *fiber.Ctx) error {
	snap := s.shared.Snapshot()
	resp := statsResponse{
		Display: s.ctl.Status(),
		System:  s.sysinfo(c.Context()),
		Sensors: sensorStats{Online: snap.Online},
	}
	if snap.HasTemperature {
		resp.Sensors.Temperature = &snap.Temperature
	}
	if snap.HasHumidity {
		resp.Sensors.Humidity = &snap.Humidity
	}
	return c.JSON(resp)
}

func (s *Server) getSettings(c *fiber.Ctx) error {
	st, _ := s.store.Get()
	return c.JSON(st)
}

func (s *Server) postSettings(c *fiber.Ctx) error {
	return s.update(c, func(st *config.Settings) error { return st.ApplyJSON(c.Body()) })
}

func (s *Server) postApps(c *fiber.Ctx) error {
	return s.update(c, func(st *config.Settings) error { return st.ApplyApps(c.Body()) })
}

func (s *Server) update(c *fiber.Ctx, fn func(*config.Settings) error) error {
	if err := s.store.Update(fn); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}
	return s.getSettings(c)
}

func (s *Server) next(c *fiber.Ctx) error {
	return queued(c, s.ctl.Next())
}

func (s *Server) previous(c *fiber.Ctx) error {
	return queued(c, s.ctl.Previous())
}

// switchTo cuts to the page; ?slide=true transitions to it instead.
func (s *Server) switchTo(c *fiber.Ctx) error {
	i, err := c.ParamsInt("index")
	if err != nil || i < 0 {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid page index")
	}
	if i >= len(s.ctl.Status().Pages) {
		return c.Status(fiber.StatusNotFound).SendString("No such page")
	}
	if c.QueryBool("slide") {
		return queued(c, s.ctl.JumpTo(i))
	}
	return queued(c, s.ctl.SwitchTo(i))
}

func queued(c *fiber.Ctx, ok bool) error {
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).SendString("Display busy")
	}
	return c.SendString("OK")
}

type notifyRequest struct {
	Text     string `json:"text"`
	Color    string `json:"color"`
	Icon     string `json:"icon"`
	Duration int    `json:"duration"` // seconds
}

func (s *Server) notify(c *fiber.Ctx) error {
	var req notifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid JSON")
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing text")
	}
	n := apps.Notification{
		Text:     req.Text,
		Icon:     req.Icon,
		Duration: time.Duration(req.Duration) * time.Second,
	}
	if req.Color != "" {
		clr, err := matrix.ParseHex(req.Color)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid color")
		}
		n.Color = clr
	}
	s.ctl.Notify(n)
	return c.SendString("OK")
}

type spectrumRequest struct {
	Bands []int `json:"bands"`
}

func (s *Server) spectrum(c *fiber.Ctx) error {
	var req spectrumRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid JSON")
	}
	if len(req.Bands) == 0 || len(req.Bands) > periphery.Bands {
		return c.Status(fiber.StatusBadRequest).SendString("Expected 1 to " + strconv.Itoa(periphery.Bands) + " bands")
	}
	bands := make([]uint8, len(req.Bands))
	for i, v := range req.Bands {
		bands[i] = uint8(min(max(v, 0), 255))
	}
	s.shared.SetSpectrum(bands, s.now())
	return c.SendString("OK")
}

func (s *Server) liveviewRaw(c *fiber.Ctx) error {
	frame, seq := s.frames.Frame()
	if frame == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("No frame available")
	}
	c.Set("Content-Type", "application/octet-stream")
	c.Set("X-Frame-Seq", strconv.FormatUint(seq, 10))
	return c.Send(frame)
}

func (s *Server) liveviewPNG(c *fiber.Ctx) error {
	img := s.frames.Image()
	if img == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("No frame available")
	}
	var buf bytes.Buffer
	if err := liveview.RenderPNG(&buf, img, c.QueryInt("scale", liveview.DefaultScale)); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to encode image")
	}
	c.Set("Content-Type", "image/png")
	c.Set("Content-Length", strconv.Itoa(buf.Len()))
	return c.Send(buf.Bytes())
}

func (s *Server) liveviewSVG(c *fiber.Ctx) error {
	img := s.frames.Image()
	if img == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("No frame available")
	}
	var buf bytes.Buffer
	liveview.RenderSVG(&buf, img, c.QueryInt("scale", liveview.DefaultScale))
	c.Set("Content-Type", "image/svg+xml")
	return c.Send(buf.Bytes())
}
