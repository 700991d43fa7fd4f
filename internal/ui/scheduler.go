// Package ui runs the page rotation: a two-state machine that shows one
// page for a dwell period, slides to the next and draws overlays on top.
//
// The scheduler is driven from a single loop. Neither Update nor the
// control methods are safe for concurrent use.
package ui

import (
	"log"
	"math"
	"time"

	"github.com/photonicat/pixel_matrix_display/internal/frameplayer"
)

const (
	DefaultFPS             = 30
	DefaultPageDwell       = 5000 // ms
	DefaultTransitionTime  = 500  // ms
	DefaultMaxEnabledPages = 16

	// absorbs float error in ms/interval so 5000ms at 30fps is 150 ticks
	tickEpsilon = 1e-6
)

var epoch = time.Now()

func monotonicMillis() int64 {
	return time.Since(epoch).Milliseconds()
}

// Scheduler decides which page is visible and composes every frame.
type Scheduler struct {
	surface   Surface
	now       func() int64
	newPlayer func() *frameplayer.Player

	state   State
	timing  Timing
	started bool

	pageDwell      uint16 // ms
	transitionTime uint16 // ms

	lastDirection int8
	manualTarget  int // -1 when no jump is pending

	pages    []Page
	overlays []OverlayFunc

	// players[slot] belongs to the current page, players[slot^1] to the
	// incoming one. They swap when a transition commits.
	players        [2]*frameplayer.Player
	slot           int
	overlayPlayers []*frameplayer.Player

	enabled []int
	showErr error
}

type Option func(*Scheduler)

// WithClock sets the millisecond clock.
func WithClock(now func() int64) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithPlayerFactory sets how page and overlay players are created.
func WithPlayerFactory(f func() *frameplayer.Player) Option {
	return func(s *Scheduler) { s.newPlayer = f }
}

// WithMaxEnabledPages bounds how many enabled pages take part in
// selection.
func WithMaxEnabledPages(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.enabled = make([]int, 0, n)
		}
	}
}

// New returns a scheduler at 30 fps, 5 s per page, 500 ms transitions,
// sliding down with automatic rotation on.
func New(surface Surface, opts ...Option) *Scheduler {
	s := &Scheduler{
		surface:        surface,
		now:            monotonicMillis,
		newPlayer:      func() *frameplayer.Player { return frameplayer.New(nil, nil) },
		pageDwell:      DefaultPageDwell,
		transitionTime: DefaultTransitionTime,
		lastDirection:  1,
		manualTarget:   -1,
		enabled:        make([]int, 0, DefaultMaxEnabledPages),
	}
	for _, o := range opts {
		o(s)
	}
	s.state = State{TransitionDirection: 1, NextPage: -1}
	s.timing = Timing{
		FrameInterval:  1000.0 / DefaultFPS,
		AutoTransition: true,
		Style:          SlideDown,
	}
	s.timing.TicksPerPage = s.ticksFor(s.pageDwell)
	s.timing.TicksPerTransition = s.ticksFor(s.transitionTime)
	s.players[0] = s.newPlayer()
	s.players[1] = s.newPlayer()
	return s
}

func (s *Scheduler) State() State   { return s.state }
func (s *Scheduler) Timing() Timing { return s.timing }
func (s *Scheduler) PageCount() int { return len(s.pages) }

// Page returns the page at index i.
func (s *Scheduler) Page(i int) (Page, bool) {
	if i < 0 || i >= len(s.pages) {
		return Page{}, false
	}
	return s.pages[i], true
}

// SetPages replaces the page list. Callers pass it already ordered.
func (s *Scheduler) SetPages(pages []Page) {
	s.pages = append(s.pages[:0:0], pages...)
	if s.state.CurrentPage >= len(s.pages) {
		s.state.CurrentPage = 0
	}
	if s.manualTarget >= len(s.pages) {
		s.manualTarget = -1
	}
	if s.state.Phase == Fixed {
		s.timing.TicksPerPage = s.ticksForPage(s.state.CurrentPage)
	}
}

// SetOverlays replaces the overlay list. Overlays draw in list order.
func (s *Scheduler) SetOverlays(overlays []OverlayFunc) {
	s.overlays = append(s.overlays[:0:0], overlays...)
	for len(s.overlayPlayers) < len(s.overlays) {
		s.overlayPlayers = append(s.overlayPlayers, s.newPlayer())
	}
}

// SetTargetFPS changes the frame rate. Tick counts are derived again from
// the configured ms so dwell and transition keep their wall-clock length;
// the state timer is rescaled so the one in progress does too.
func (s *Scheduler) SetTargetFPS(fps int) {
	if fps <= 0 {
		return
	}
	interval := 1000.0 / float64(fps)
	ratio := s.timing.FrameInterval / interval
	s.timing.FrameInterval = interval
	s.timing.TicksPerPage = s.ticksForPage(s.state.CurrentPage)
	s.timing.TicksPerTransition = s.ticksFor(s.transitionTime)
	s.state.TicksSinceStateChange = int(math.Round(float64(s.state.TicksSinceStateChange) * ratio))
}

// SetPageDwell sets the global dwell in ms. A page with its own duration
// keeps it.
func (s *Scheduler) SetPageDwell(ms uint16) {
	s.pageDwell = ms
	s.timing.TicksPerPage = s.ticksForPage(s.state.CurrentPage)
}

// SetTransitionTime sets the slide length in ms.
func (s *Scheduler) SetTransitionTime(ms uint16) {
	s.transitionTime = ms
	s.timing.TicksPerTransition = s.ticksFor(ms)
}

func (s *Scheduler) SetAutoTransition(on bool)             { s.timing.AutoTransition = on }
func (s *Scheduler) SetTransitionStyle(st TransitionStyle) { s.timing.Style = st }

func (s *Scheduler) ticksFor(ms uint16) int {
	return max(1, s.intervals(float64(ms)))
}

// intervals is the number of whole frame intervals in ms.
func (s *Scheduler) intervals(ms float64) int {
	return int(ms/s.timing.FrameInterval + tickEpsilon)
}

func (s *Scheduler) ticksForPage(i int) int {
	if i >= 0 && i < len(s.pages) && s.pages[i].Duration > 0 {
		return s.ticksFor(s.pages[i].Duration)
	}
	return s.ticksFor(s.pageDwell)
}

// Next slides to the following enabled page. Ignored mid-transition.
func (s *Scheduler) Next() { s.navigate(1) }

// Previous slides to the preceding enabled page. Ignored mid-transition.
func (s *Scheduler) Previous() { s.navigate(-1) }

func (s *Scheduler) navigate(dir int8) {
	if s.state.Phase == InTransition || len(s.pages) == 0 {
		return
	}
	s.takeControl(dir)
	s.beginTransition()
}

// JumpTo slides to page i. During a transition the incoming page is
// replaced and the slide restarts.
func (s *Scheduler) JumpTo(i int) {
	if i < 0 || i >= len(s.pages) {
		return
	}
	cur := s.state.CurrentPage
	dir := int8(1)
	if i < cur {
		dir = -1
	}
	if s.state.Phase == InTransition {
		if i == cur || i == s.state.NextPage {
			return
		}
		s.takeControl(dir)
		s.state.NextPage = i
		s.state.TicksSinceStateChange = 0
		return
	}
	if i == cur {
		s.state.TicksSinceStateChange = 0
		return
	}
	s.takeControl(dir)
	s.manualTarget = i
	s.beginTransition()
}

// SwitchTo shows page i immediately without a transition.
func (s *Scheduler) SwitchTo(i int) {
	if i < 0 || i >= len(s.pages) {
		return
	}
	if s.state.ManualControl {
		s.state.TransitionDirection = s.lastDirection
		s.state.ManualControl = false
	}
	s.manualTarget = -1
	s.state.Phase = Fixed
	s.state.NextPage = -1
	s.state.CurrentPage = i
	s.state.TicksSinceStateChange = 0
	s.timing.TicksPerPage = s.ticksForPage(i)
}

func (s *Scheduler) takeControl(dir int8) {
	if !s.state.ManualControl {
		s.lastDirection = s.state.TransitionDirection
	}
	s.state.ManualControl = true
	s.state.TransitionDirection = dir
}

func (s *Scheduler) beginTransition() {
	s.state.Phase = InTransition
	s.state.TicksSinceStateChange = 0
	s.state.NextPage = s.selectNext()
	log.Printf("[ui] page %d -> %d", s.state.CurrentPage, s.state.NextPage)
}

// selectNext returns the incoming page: a pending jump target, or the
// neighbour among enabled pages in the transition direction.
func (s *Scheduler) selectNext() int {
	if s.manualTarget >= 0 {
		t := s.manualTarget
		s.manualTarget = -1
		return t
	}
	en := s.enabledPages()
	n := len(en)
	if n == 0 {
		return 0
	}
	pos := 0
	for i, idx := range en {
		if idx == s.state.CurrentPage {
			pos = i
			break
		}
	}
	step := 1
	if s.state.TransitionDirection < 0 {
		step = -1
	}
	return en[((pos+step)%n+n)%n]
}

func (s *Scheduler) enabledPages() []int {
	s.enabled = s.enabled[:0]
	for i, p := range s.pages {
		if !p.Enabled {
			continue
		}
		if len(s.enabled) == cap(s.enabled) {
			break
		}
		s.enabled = append(s.enabled, i)
	}
	return s.enabled
}

func (s *Scheduler) commit() {
	next := s.state.NextPage
	if next < 0 || next >= len(s.pages) {
		next = 0
	}
	s.state.Phase = Fixed
	s.state.CurrentPage = next
	s.state.NextPage = -1
	s.state.TicksSinceStateChange = 0
	s.slot ^= 1
	s.timing.TicksPerPage = s.ticksForPage(next)
	if s.state.ManualControl {
		s.state.TransitionDirection = s.lastDirection
		s.state.ManualControl = false
	}
}

// Update ticks when a frame interval has passed since the last tick and
// returns the ms left in the frame budget; negative means the frame ran
// late. Missed intervals are credited to the state timer so dwell keeps
// wall-clock time on a slow display.
func (s *Scheduler) Update() int64 {
	start := s.now()
	if s.started {
		elapsed := start - s.state.LastUpdate
		if budget := s.timing.FrameInterval - float64(elapsed); budget > 0 {
			return int64(budget)
		}
		if missed := s.intervals(float64(elapsed)) - 1; missed > 0 {
			s.state.TicksSinceStateChange += missed
		}
	}
	s.started = true
	s.state.LastUpdate = start
	s.Tick()
	return int64(s.timing.FrameInterval - float64(s.now()-start))
}

// Tick advances the state machine by one tick and draws a frame.
func (s *Scheduler) Tick() {
	s.step()
	s.surface.Clear()
	if len(s.pages) > 0 {
		s.drawPages()
	}
	st := s.state
	for i, o := range s.overlays {
		o(s.surface, st, s.overlayPlayers[i])
	}
	if err := s.surface.Show(); err != nil {
		if s.showErr == nil {
			log.Printf("[ui] show frame: %v", err)
		}
		s.showErr = err
	} else {
		s.showErr = nil
	}
}

func (s *Scheduler) step() {
	s.state.TicksSinceStateChange++
	switch s.state.Phase {
	case Fixed:
		if s.state.TicksSinceStateChange < s.timing.TicksPerPage {
			return
		}
		if s.timing.AutoTransition && len(s.enabledPages()) > 1 {
			s.beginTransition()
		} else {
			s.state.TicksSinceStateChange = 0
		}
	case InTransition:
		if s.state.TicksSinceStateChange >= s.timing.TicksPerTransition {
			s.commit()
		}
	}
}

func (s *Scheduler) drawPages() {
	st := s.state
	cur := st.CurrentPage
	if st.Phase == Fixed {
		s.render(cur, 0, 0, s.players[s.slot])
		return
	}
	progress := math.Min(float64(st.TicksSinceStateChange)/float64(s.timing.TicksPerTransition), 1)
	x, y, x1, y1 := s.offsets(progress)
	s.render(cur, x, y, s.players[s.slot])
	s.render(st.NextPage, x1, y1, s.players[s.slot^1])
}

func (s *Scheduler) render(i, x, y int, p *frameplayer.Player) {
	if i < 0 || i >= len(s.pages) || s.pages[i].Render == nil {
		return
	}
	s.pages[i].Render(s.surface, s.state, x, y, p)
}

// offsets returns the origins of the outgoing and incoming page.
func (s *Scheduler) offsets(progress float64) (x, y, x1, y1 int) {
	b := s.surface.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	var fx, fy, fx1, fy1 float64
	switch s.timing.Style {
	case SlideUp:
		fy = -h * progress
		fy1 = fy + h
	case SlideDown:
		fy = h * progress
		fy1 = fy - h
	case SlideLeft:
		fx = -w * progress
		fx1 = fx + w
	case SlideRight:
		fx = w * progress
		fx1 = fx - w
	}
	if s.state.TransitionDirection < 0 {
		fx, fy, fx1, fy1 = -fx, -fy, -fx1, -fy1
	}
	return int(fx), int(fy), int(fx1), int(fy1)
}
