package store

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultSaveDelay is the trailing-edge debounce applied to writes. Column
// resizing produces a write per motion event; without coalescing, a drag
// hammers the backing store.
const DefaultSaveDelay = 250 * time.Millisecond

// Debounced wraps a KV so that rapid Set calls for the same key coalesce into
// one trailing write. Writes whose payload hashes identically to the last
// value written for that key are skipped entirely.
type Debounced struct {
	kv    KV
	delay time.Duration

	// afterFunc is swappable so tests can fire timers deterministically.
	afterFunc func(time.Duration, func()) *time.Timer

	mu      sync.Mutex
	pending map[string][]byte
	timers  map[string]*time.Timer
	written map[string]uint64
}

// NewDebounced wraps kv with the given delay; delay <= 0 uses
// DefaultSaveDelay.
func NewDebounced(kv KV, delay time.Duration) *Debounced {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Debounced{
		kv:        kv,
		delay:     delay,
		afterFunc: time.AfterFunc,
		pending:   make(map[string][]byte),
		timers:    make(map[string]*time.Timer),
		written:   make(map[string]uint64),
	}
}

// Get reads through to the wrapped store, preferring a pending unwritten
// value so readers never observe stale state mid-debounce.
func (d *Debounced) Get(key string) ([]byte, bool, error) {
	d.mu.Lock()
	if v, ok := d.pending[key]; ok {
		out := append([]byte(nil), v...)
		d.mu.Unlock()
		return out, true, nil
	}
	d.mu.Unlock()
	return d.kv.Get(key)
}

// Set schedules a write of value under key after the debounce delay,
// replacing any write already pending for that key.
func (d *Debounced) Set(key string, value []byte) error {
	sum := xxhash.Sum64(value)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, waiting := d.pending[key]; !waiting && d.written[key] == sum && sum != 0 {
		return nil
	}

	d.pending[key] = append([]byte(nil), value...)
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = d.afterFunc(d.delay, func() {
		d.flushKey(key)
	})
	return nil
}

func (d *Debounced) flushKey(key string) {
	d.mu.Lock()
	value, ok := d.pending[key]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	delete(d.timers, key)
	d.mu.Unlock()

	if err := d.kv.Set(key, value); err == nil {
		d.mu.Lock()
		d.written[key] = xxhash.Sum64(value)
		d.mu.Unlock()
	}
}

// Flush writes every pending value immediately and cancels their timers.
func (d *Debounced) Flush() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	for _, t := range d.timers {
		t.Stop()
	}
	d.mu.Unlock()

	for _, k := range keys {
		d.flushKey(k)
	}
}

// Close flushes pending writes and closes the wrapped store.
func (d *Debounced) Close() error {
	d.Flush()
	return d.kv.Close()
}
