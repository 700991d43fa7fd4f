// Package display wires the settings store, the canvas and the page
// scheduler into the firmware's render loop.
package display

import (
	"context"
	"io/fs"
	"log"
	"sync"
	"time"

	"github.com/photonicat/pixel_matrix_display/internal/apps"
	"github.com/photonicat/pixel_matrix_display/internal/config"
	"github.com/photonicat/pixel_matrix_display/internal/frameplayer"
	"github.com/photonicat/pixel_matrix_display/internal/matrix"
	"github.com/photonicat/pixel_matrix_display/internal/periphery"
	"github.com/photonicat/pixel_matrix_display/internal/ui"
)

type CommandKind uint8

const (
	CmdNext CommandKind = iota
	CmdPrevious
	CmdSwitch // cut to Index
	CmdJump   // slide to Index
	CmdToggleAuto
)

type Command struct {
	Kind  CommandKind
	Index int
}

const commandQueue = 16

// Liveview receives the live settings of the frame sampler.
type Liveview interface {
	Configure(enabled bool, interval time.Duration)
}

// Wiring receives the configured panel layout.
type Wiring interface {
	SetLayout(l matrix.Layout)
}

// Status is what the control plane reports about the loop.
type Status struct {
	Page           string   `json:"page"`
	PageIndex      int      `json:"pageIndex"`
	Pages          []string `json:"pages"`
	Phase          string   `json:"phase"`
	AutoTransition bool     `json:"autoTransition"`
	FPS            float64  `json:"fps"`
	Frames         uint64   `json:"frames"`
}

// Manager owns the scheduler. Only Run (or Tick) touches it; other
// goroutines talk to it through Send.
type Manager struct {
	store    *config.Store
	canvas   *matrix.Canvas
	ui       *ui.Scheduler
	env      apps.Env
	notifier *apps.Notifier
	liveview Liveview
	wiring   Wiring

	uiOpts   []ui.Option
	commands chan Command
	applied  uint64

	frames      uint64
	lastTick    int64
	fpsFrames   int
	fpsSince    time.Time
	measuredFPS float64

	mu     sync.RWMutex
	status Status
}

type Option func(*Manager)

// WithLiveview lets the settings drive a frame sampler.
func WithLiveview(l Liveview) Option {
	return func(m *Manager) { m.liveview = l }
}

// WithWiring lets the layout setting drive the strip sink.
func WithWiring(w Wiring) Option {
	return func(m *Manager) { m.wiring = w }
}

// WithSchedulerOptions passes options to the page scheduler.
func WithSchedulerOptions(opts ...ui.Option) Option {
	return func(m *Manager) { m.uiOpts = append(m.uiOpts, opts...) }
}

// New builds the manager. Icons are loaded from fsys (its icons/
// directory) or from the built-in table.
func New(store *config.Store, canvas *matrix.Canvas, env apps.Env, notifier *apps.Notifier, fsys fs.FS, opts ...Option) *Manager {
	if env.Now == nil {
		env.Now = time.Now
	}
	m := &Manager{
		store:    store,
		canvas:   canvas,
		env:      env,
		notifier: notifier,
		commands: make(chan Command, commandQueue),
		fpsSince: env.Now(),
	}
	for _, o := range opts {
		o(m)
	}
	uiOpts := append([]ui.Option{
		ui.WithPlayerFactory(func() *frameplayer.Player { return frameplayer.New(apps.Icons, fsys) }),
	}, m.uiOpts...)
	m.ui = ui.New(canvas, uiOpts...)
	m.applyPending()
	return m
}

// Send queues a command for the next tick. It drops the command when
// the queue is full.
func (m *Manager) Send(c Command) bool {
	select {
	case m.commands <- c:
		return true
	default:
		log.Printf("[display] command queue full, dropping %d", c.Kind)
		return false
	}
}

func (m *Manager) Next() bool          { return m.Send(Command{Kind: CmdNext}) }
func (m *Manager) Previous() bool      { return m.Send(Command{Kind: CmdPrevious}) }
func (m *Manager) SwitchTo(i int) bool { return m.Send(Command{Kind: CmdSwitch, Index: i}) }
func (m *Manager) JumpTo(i int) bool   { return m.Send(Command{Kind: CmdJump, Index: i}) }

// HandleButton maps panel buttons: left and right page, select toggles
// automatic rotation.
func (m *Manager) HandleButton(b periphery.Button) {
	switch b {
	case periphery.ButtonLeft:
		m.Previous()
	case periphery.ButtonRight:
		m.Next()
	case periphery.ButtonSelect:
		m.Send(Command{Kind: CmdToggleAuto})
	}
}

// Notify shows a message over the pages.
func (m *Manager) Notify(n apps.Notification) {
	m.notifier.Push(n)
}

// Status returns the state published by the last tick.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.status
	st.Pages = append([]string(nil), st.Pages...)
	return st
}

// Run drives the scheduler until ctx is done, sleeping between frames.
func (m *Manager) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		left := m.Tick()
		if left < 1 {
			left = 1
		}
		timer.Reset(time.Duration(left) * time.Millisecond)
	}
}

// Tick runs one loop iteration: commands, settings, then the scheduler.
// It returns the ms left in the frame budget.
func (m *Manager) Tick() int64 {
	m.drain()
	m.applyPending()
	left := m.ui.Update()
	m.publish()
	return left
}

func (m *Manager) drain() {
	for {
		select {
		case c := <-m.commands:
			m.execute(c)
		default:
			return
		}
	}
}

func (m *Manager) execute(c Command) {
	switch c.Kind {
	case CmdNext:
		m.ui.Next()
	case CmdPrevious:
		m.ui.Previous()
	case CmdSwitch:
		m.ui.SwitchTo(c.Index)
	case CmdJump:
		m.ui.JumpTo(c.Index)
	case CmdToggleAuto:
		err := m.store.Update(func(s *config.Settings) error {
			s.AutoTransition = !s.AutoTransition
			return nil
		})
		if err != nil {
			log.Printf("[display] toggle auto transition: %v", err)
		}
	}
}

func (m *Manager) applyPending() {
	s, v := m.store.Get()
	if v == m.applied {
		return
	}
	m.apply(s)
	m.applied = v
}

func (m *Manager) apply(s config.Settings) {
	m.canvas.SetBrightness(s.Brightness)
	m.canvas.SetOff(s.MatrixOff)

	m.ui.SetTargetFPS(int(s.FPS))
	m.ui.SetTransitionTime(s.TransitionTime)
	m.ui.SetAutoTransition(s.AutoTransition)
	m.ui.SetTransitionStyle(ui.ParseTransitionStyle(s.TransitionStyle))
	m.ui.SetPages(apps.Pages(s, m.env))
	m.ui.SetPageDwell(s.AppTime)
	m.ui.SetOverlays(apps.Overlays(s, m.env, m.notifier))

	if m.wiring != nil {
		m.wiring.SetLayout(matrix.LayoutFor(s.Layout))
	}
	if m.liveview != nil {
		m.liveview.Configure(s.Liveview.Enabled, time.Duration(s.Liveview.Interval)*time.Millisecond)
	}
	log.Printf("[display] settings applied: fps=%d brightness=%d app_time=%dms auto=%v",
		s.FPS, s.Brightness, s.AppTime, s.AutoTransition)
}

func (m *Manager) publish() {
	st := m.ui.State()
	if st.LastUpdate != m.lastTick || m.frames == 0 {
		m.lastTick = st.LastUpdate
		m.frames++
		m.fpsFrames++
	}
	now := m.env.Now()
	if d := now.Sub(m.fpsSince); d >= time.Second {
		m.measuredFPS = float64(m.fpsFrames) / d.Seconds()
		m.fpsFrames = 0
		m.fpsSince = now
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.PageIndex = st.CurrentPage
	m.status.Phase = st.Phase.String()
	m.status.AutoTransition = m.ui.Timing().AutoTransition
	m.status.FPS = m.measuredFPS
	m.status.Frames = m.frames
	m.status.Pages = m.status.Pages[:0]
	m.status.Page = ""
	for i := 0; i < m.ui.PageCount(); i++ {
		p, _ := m.ui.Page(i)
		m.status.Pages = append(m.status.Pages, p.Name)
		if i == st.CurrentPage {
			m.status.Page = p.Name
		}
	}
}
