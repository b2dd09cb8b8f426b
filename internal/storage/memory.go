package storage

import (
	"sync"
)

const memoryJournalCap = 500

// MemoryJournal keeps the most recent entries in process memory. It is the
// fallback when no database is configured or the database cannot be opened.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries []LoadEntry
	cap     int
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{cap: memoryJournalCap}
}

func (m *MemoryJournal) Record(entry LoadEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	if over := len(m.entries) - m.cap; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
}

func (m *MemoryJournal) Recent(limit int) ([]LoadEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]LoadEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *MemoryJournal) Close() error {
	return nil
}
