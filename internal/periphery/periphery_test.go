package periphery

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"github.com/shirou/gopsutil/v3/host"
)

func fakeSensors(stats []host.TemperatureStat, statErr error, files map[string]string) *Sensors {
	s := NewSensors("cpu", "/hum", time.Second)
	s.temperatures = func(context.Context) ([]host.TemperatureStat, error) { return stats, statErr }
	s.readFile = func(name string) ([]byte, error) {
		if v, ok := files[name]; ok {
			return []byte(v), nil
		}
		return nil, os.ErrNotExist
	}
	return s
}

func TestSensorsPoll(t *testing.T) {
	tests := []struct {
		name     string
		stats    []host.TemperatureStat
		statErr  error
		files    map[string]string
		wantTemp float64
		hasTemp  bool
		wantHum  float64
		hasHum   bool
	}{
		{
			name:     "matching sensor",
			stats:    []host.TemperatureStat{{SensorKey: "gpu_thermal", Temperature: 60}, {SensorKey: "cpu_thermal", Temperature: 41.5}},
			files:    map[string]string{"/hum": "45.2\n"},
			wantTemp: 41.5, hasTemp: true, wantHum: 45.2, hasHum: true,
		},
		{
			name:     "thermal zone fallback",
			statErr:  errors.New("no sensors"),
			files:    map[string]string{thermalZone: "38500\n", "/hum": "52300"},
			wantTemp: 38.5, hasTemp: true, wantHum: 52.3, hasHum: true,
		},
		{
			name:  "nothing readable",
			files: map[string]string{"/hum": "wet"},
		},
	}
	for _, tt := range tests {
		var out Shared
		fakeSensors(tt.stats, tt.statErr, tt.files).Poll(context.Background(), &out)
		snap := out.Snapshot()
		if snap.HasTemperature != tt.hasTemp || math.Abs(snap.Temperature-tt.wantTemp) > 1e-9 {
			t.Errorf("%s: temperature = %v (%v), want %v (%v)", tt.name, snap.Temperature, snap.HasTemperature, tt.wantTemp, tt.hasTemp)
		}
		if snap.HasHumidity != tt.hasHum || math.Abs(snap.Humidity-tt.wantHum) > 1e-9 {
			t.Errorf("%s: humidity = %v (%v), want %v (%v)", tt.name, snap.Humidity, snap.HasHumidity, tt.wantHum, tt.hasHum)
		}
	}
}

func TestConnectivityCheck(t *testing.T) {
	c := NewConnectivity("example.invalid", time.Second)
	c.probe = func(string) (time.Duration, error) { return 0, errors.New("timeout") }
	if c.Check() {
		t.Error("failed probe reported online")
	}
	c.probe = func(string) (time.Duration, error) { return 3 * time.Millisecond, nil }
	if !c.Check() {
		t.Error("answered probe reported offline")
	}
}

func TestConnectivityRunPublishes(t *testing.T) {
	c := NewConnectivity("example.invalid", time.Hour)
	c.probe = func(string) (time.Duration, error) { return time.Millisecond, nil }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out Shared
	if err := c.Run(ctx, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s := out.Snapshot(); !s.Online || !s.Checked {
		t.Errorf("snapshot = %+v, want online and checked", s)
	}
}

func TestButtonDecode(t *testing.T) {
	b := NewButtons("/dev/input/event0")
	t0 := time.Unix(1000, 0)
	tests := []struct {
		ev   evdev.InputEvent
		at   time.Duration
		want Button
		ok   bool
	}{
		{evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_RIGHT, Value: 1}, 0, ButtonRight, true},
		{evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_RIGHT, Value: 0}, 10 * time.Millisecond, 0, false},
		{evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_RIGHT, Value: 1}, 50 * time.Millisecond, 0, false}, // bounce
		{evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_LEFT, Value: 1}, 60 * time.Millisecond, ButtonLeft, true},
		{evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_RIGHT, Value: 1}, 300 * time.Millisecond, ButtonRight, true},
		{evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_POWER, Value: 1}, 400 * time.Millisecond, ButtonSelect, true},
		{evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_A, Value: 1}, 500 * time.Millisecond, 0, false},
		{evdev.InputEvent{Type: evdev.EV_SYN}, 600 * time.Millisecond, 0, false},
	}
	for i, tt := range tests {
		ev := tt.ev
		got, ok := b.decode(&ev, t0.Add(tt.at))
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("event %d: decode = %v, %v; want %v, %v", i, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSetSpectrum(t *testing.T) {
	var sh Shared
	now := time.Unix(50, 0)
	sh.SetSpectrum([]uint8{1, 2, 3}, now)
	s := sh.Snapshot()
	if s.Spectrum[0] != 1 || s.Spectrum[2] != 3 || s.Spectrum[3] != 0 {
		t.Errorf("spectrum = %v", s.Spectrum[:4])
	}
	if !s.SpectrumActive(now.Add(time.Second), 2*time.Second) {
		t.Error("fresh spectrum reported inactive")
	}
	if s.SpectrumActive(now.Add(3*time.Second), 2*time.Second) {
		t.Error("stale spectrum reported active")
	}
	if (Snapshot{}).SpectrumActive(now, time.Hour) {
		t.Error("empty snapshot reported active spectrum")
	}
}
