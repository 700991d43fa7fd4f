package config

import (
	"log"
	"sync"
)

// Store guards the live settings. Every Update bumps the version so the
// display loop can tell when to reapply.
type Store struct {
	mu      sync.RWMutex
	s       Settings
	version uint64
	path    string

	saveMu sync.Mutex
	saved  uint64 // version last written to path
}

// NewStore returns a store holding s. When path is not empty every
// Update is persisted there.
func NewStore(s Settings, path string) *Store {
	s.Normalize()
	return &Store{s: s, version: 1, path: path}
}

// Get returns a snapshot and its version.
func (st *Store) Get() (Settings, uint64) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s, st.version
}

func (st *Store) Version() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.version
}

// Update applies fn to the settings. If fn fails nothing changes.
func (st *Store) Update(fn func(*Settings) error) error {
	st.mu.Lock()
	next := st.s
	if err := fn(&next); err != nil {
		st.mu.Unlock()
		return err
	}
	st.s = next
	st.version++
	st.mu.Unlock()

	if st.path != "" {
		st.persist()
	}
	return nil
}

// persist writes the newest snapshot. Writers that lose the race find
// their version already on disk and skip.
func (st *Store) persist() {
	st.saveMu.Lock()
	defer st.saveMu.Unlock()
	s, v := st.Get()
	if v <= st.saved {
		return
	}
	if err := Save(st.path, s); err != nil {
		log.Printf("[config] %v", err)
		return
	}
	st.saved = v
}
