package store

import (
	"context"
	"sync"
)

// Memory keeps slots in a map. Nothing survives the process.
//
// Thread-safety: all methods are safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	slots map[string][]byte
	saves int

	failSave error
}

var _ KV = (*Memory)(nil)

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{slots: make(map[string][]byte)}
}

// Load returns a copy of the slot's blob.
func (m *Memory) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, v...), true, nil
}

// Save overwrites the slot with a copy of data.
func (m *Memory) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	m.slots[key] = append([]byte{}, data...)
	m.saves++
	return nil
}

// SetFailSave makes every following Save return err without storing
// anything. Pass nil to restore normal behaviour.
func (m *Memory) SetFailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = err
}

// Saves returns how many successful saves have happened.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
