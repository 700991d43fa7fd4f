package periphery

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	evdev "github.com/holoplot/go-evdev"
)

type Button uint8

const (
	ButtonLeft Button = iota
	ButtonSelect
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonSelect:
		return "select"
	case ButtonRight:
		return "right"
	default:
		return "unknown"
	}
}

const buttonDebounce = 150 * time.Millisecond

// DefaultKeymap maps keyboard and PMIC keys to the three panel buttons.
var DefaultKeymap = map[evdev.EvCode]Button{
	evdev.KEY_LEFT:       ButtonLeft,
	evdev.KEY_VOLUMEDOWN: ButtonLeft,
	evdev.KEY_ENTER:      ButtonSelect,
	evdev.KEY_POWER:      ButtonSelect,
	evdev.KEY_RIGHT:      ButtonRight,
	evdev.KEY_VOLUMEUP:   ButtonRight,
}

// Buttons reads key presses from an input device.
type Buttons struct {
	Device string // /dev/input path or device name
	Keymap map[evdev.EvCode]Button

	lastPress map[Button]time.Time
}

func NewButtons(device string) *Buttons {
	return &Buttons{Device: device, Keymap: DefaultKeymap, lastPress: make(map[Button]time.Time)}
}

// Run calls handle for every debounced press until ctx is done.
func (b *Buttons) Run(ctx context.Context, handle func(Button)) error {
	path, err := b.resolve()
	if err != nil {
		return err
	}
	dev, err := evdev.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := dev.Grab(); err != nil {
		log.Printf("[periphery] warning: failed to grab %s: %v", path, err)
	}
	name, _ := dev.Name()
	log.Printf("[periphery] using input device: %s (%s)", path, name)

	go func() {
		<-ctx.Done()
		dev.Ungrab()
		dev.Close()
	}()

	for {
		ev, err := dev.ReadOne()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[periphery] read error: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if btn, ok := b.decode(ev, time.Now()); ok {
			handle(btn)
		}
	}
}

func (b *Buttons) resolve() (string, error) {
	if strings.HasPrefix(b.Device, "/dev/") {
		return b.Device, nil
	}
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return "", fmt.Errorf("list input devices: %w", err)
	}
	for _, ip := range paths {
		if ip.Name == b.Device {
			return ip.Path, nil
		}
	}
	return "", fmt.Errorf("input device %q not found", b.Device)
}

// decode turns a key-down event into a button press.
func (b *Buttons) decode(ev *evdev.InputEvent, now time.Time) (Button, bool) {
	if ev.Type != evdev.EV_KEY || ev.Value != 1 {
		return 0, false
	}
	btn, ok := b.Keymap[ev.Code]
	if !ok {
		return 0, false
	}
	if now.Sub(b.lastPress[btn]) < buttonDebounce {
		return 0, false
	}
	b.lastPress[btn] = now
	return btn, true
}
