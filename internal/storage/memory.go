package storage

import (
	"sync"

	"github.com/everforgeworks/lighthouse-keeper/internal/game"
)

// MemoryStore keeps the prestige record in memory. Used for tests and the
// LIGHTHOUSE_STORE=memory mode.
type MemoryStore struct {
	mu    sync.RWMutex
	rec   game.PrestigeRecord
	ok    bool
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) LoadPrestigeRecord() (game.PrestigeRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rec, m.ok, nil
}

func (m *MemoryStore) SavePrestigeRecord(rec game.PrestigeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = rec
	m.ok = true
	m.saves++
	return nil
}

// SaveCount reports how many times the record was written.
func (m *MemoryStore) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
