// Package store provides the key-value persistence capability the browser
// core is handed by its host: layout ratios and sidebar widths are saved under
// host-chosen string keys. Two backends ship — an in-memory store used by
// tests and as a fallback, and a SQLite-backed store for real sessions — plus
// a debouncing wrapper that protects drag-resize performance.
package store

import (
	"encoding/json"
	"sync"
)

// KV is the minimal persistence surface injected into the browser core.
type KV interface {
	// Get returns the stored value and whether the key existed.
	Get(key string) ([]byte, bool, error)
	// Set stores value under key, overwriting any previous value.
	Set(key string, value []byte) error
	Close() error
}

// Memory is a KV held entirely in memory. Safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Close() error { return nil }

// GetJSON unmarshals the value at key into out. Returns false when the key is
// absent or the stored payload does not parse; a corrupt payload is treated
// as missing rather than fatal.
func GetJSON(kv KV, key string, out any) bool {
	raw, ok, err := kv.Get(key)
	if err != nil || !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Set(key, raw)
}
