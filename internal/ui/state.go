package ui

// Phase is the scheduler state.
type Phase uint8

const (
	Fixed        Phase = iota // one page fully visible
	InTransition              // two pages sliding
)

func (p Phase) String() string {
	switch p {
	case Fixed:
		return "FIXED"
	case InTransition:
		return "IN_TRANSITION"
	default:
		return "UNKNOWN"
	}
}

// TransitionStyle selects how pages slide.
type TransitionStyle uint8

const (
	SlideUp TransitionStyle = iota
	SlideDown
	SlideLeft
	SlideRight
)

// ParseTransitionStyle maps a config name to a style, defaulting to
// SlideDown.
func ParseTransitionStyle(s string) TransitionStyle {
	switch s {
	case "up", "slide_up":
		return SlideUp
	case "left", "slide_left":
		return SlideLeft
	case "right", "slide_right":
		return SlideRight
	default:
		return SlideDown
	}
}

// State is the scheduler state handed to pages and overlays. They get a
// copy, so writes never reach the scheduler.
type State struct {
	Phase                 Phase
	CurrentPage           int
	TicksSinceStateChange int
	TransitionDirection   int8 // +1 or -1
	ManualControl         bool
	NextPage              int   // cached incoming page, -1 when unset
	LastUpdate            int64 // ms timestamp of the last tick
}

// Timing holds the frame-rate derived tick counts.
type Timing struct {
	FrameInterval      float64 // ms
	TicksPerPage       int
	TicksPerTransition int
	AutoTransition     bool
	Style              TransitionStyle
}
