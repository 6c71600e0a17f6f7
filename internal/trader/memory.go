package trader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type memoryFile struct {
	TradedEvents []string  `json:"traded_events"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Memory is the durable set of traded event ids. An empty path keeps it in
// memory only.
type Memory struct {
	path string

	mu     sync.Mutex
	events map[string]struct{}
	now    func() time.Time
}

// NewMemory creates an empty memory backed by path. Call Load to read
// existing state.
func NewMemory(path string) *Memory {
	return &Memory{
		path:   path,
		events: make(map[string]struct{}),
		now:    time.Now,
	}
}

// Load reads the memory file. A missing file is an empty memory.
func (m *Memory) Load() error {
	if m.path == "" {
		return nil
	}
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read trade memory: %w", err)
	}

	var f memoryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse trade memory %s: %w", m.path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range f.TradedEvents {
		if e != "" {
			m.events[e] = struct{}{}
		}
	}
	return nil
}

// Has reports whether event was traded.
func (m *Memory) Has(event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.events[event]
	return ok
}

// Add records event and flushes. It returns false without writing when
// event was already present. A write error leaves event recorded in
// memory.
func (m *Memory) Add(event string) (bool, error) {
	n, err := m.AddAll([]string{event})
	return n == 1, err
}

// AddAll records events with a single flush and returns how many were new.
func (m *Memory) AddAll(events []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, e := range events {
		if e == "" {
			continue
		}
		if _, ok := m.events[e]; ok {
			continue
		}
		m.events[e] = struct{}{}
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, m.saveLocked()
}

// Events returns the traded event ids, sorted.
func (m *Memory) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked()
}

// Len returns the number of traded events.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// Save writes the memory file atomically.
func (m *Memory) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Memory) sortedLocked() []string {
	out := make([]string, 0, len(m.events))
	for e := range m.events {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// saveLocked writes a temp file in the target directory, syncs it and
// renames it over the old file.
func (m *Memory) saveLocked() error {
	if m.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(memoryFile{
		TradedEvents: m.sortedLocked(),
		LastUpdated:  m.now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal trade memory: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write trade memory: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync trade memory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close trade memory: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("rename trade memory: %w", err)
	}
	return nil
}
