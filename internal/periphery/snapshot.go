// Package periphery collects sensor readings, connectivity and button
// presses and publishes them to the display loop.
package periphery

import (
	"sync"
	"time"
)

// Bands is the number of spectrum bands, one per panel column.
const Bands = 32

// Snapshot is a copy of the latest readings.
type Snapshot struct {
	Temperature    float64 // °C
	HasTemperature bool
	Humidity       float64 // %
	HasHumidity    bool

	Online  bool
	Checked bool // at least one connectivity probe finished

	Spectrum   [Bands]uint8
	SpectrumAt time.Time
}

// SpectrumActive reports whether spectrum data arrived within maxAge.
func (s Snapshot) SpectrumActive(now time.Time, maxAge time.Duration) bool {
	return !s.SpectrumAt.IsZero() && now.Sub(s.SpectrumAt) <= maxAge
}

// Shared holds the snapshot written by producers and read every tick.
type Shared struct {
	mu sync.RWMutex
	s  Snapshot
}

func (sh *Shared) Snapshot() Snapshot {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.s
}

func (sh *Shared) SetTemperature(c float64) {
	sh.mu.Lock()
	sh.s.Temperature, sh.s.HasTemperature = c, true
	sh.mu.Unlock()
}

func (sh *Shared) SetHumidity(h float64) {
	sh.mu.Lock()
	sh.s.Humidity, sh.s.HasHumidity = h, true
	sh.mu.Unlock()
}

func (sh *Shared) SetOnline(online bool) {
	sh.mu.Lock()
	sh.s.Online, sh.s.Checked = online, true
	sh.mu.Unlock()
}

// SetSpectrum stores up to Bands values; missing bands are zero.
func (sh *Shared) SetSpectrum(bands []uint8, at time.Time) {
	sh.mu.Lock()
	sh.s.Spectrum = [Bands]uint8{}
	copy(sh.s.Spectrum[:], bands)
	sh.s.SpectrumAt = at
	sh.mu.Unlock()
}
