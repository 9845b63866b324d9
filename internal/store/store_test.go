package store

import (
	"testing"
	"time"
)

func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory()

	if _, ok, _ := m.Get("missing"); ok {
		t.Error("missing key should report !ok")
	}

	if err := m.Set("k", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	v, ok, err := m.Get("k")
	if err != nil || !ok || string(v) != "v1" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}

	// Returned slice is a copy.
	v[0] = 'X'
	v2, _, _ := m.Get("k")
	if string(v2) != "v1" {
		t.Error("Get should return a copy")
	}
}

func TestJSONHelpers(t *testing.T) {
	m := NewMemory()

	type layout struct {
		Name float64 `json:"name"`
	}
	if err := SetJSON(m, "layout", layout{Name: 0.5}); err != nil {
		t.Fatal(err)
	}

	var got layout
	if !GetJSON(m, "layout", &got) || got.Name != 0.5 {
		t.Errorf("GetJSON = %+v", got)
	}

	// Corrupt payloads read as missing.
	_ = m.Set("bad", []byte("{not json"))
	var out layout
	if GetJSON(m, "bad", &out) {
		t.Error("corrupt payload should read as missing")
	}
}

// manualTimers collects debounce callbacks so tests fire them explicitly.
type manualTimers struct {
	callbacks []func()
}

func (m *manualTimers) afterFunc(_ time.Duration, f func()) *time.Timer {
	m.callbacks = append(m.callbacks, f)
	// A stopped timer: the callback is delivered manually via fire().
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

func (m *manualTimers) fire() {
	cbs := m.callbacks
	m.callbacks = nil
	for _, f := range cbs {
		f()
	}
}

func TestDebounced_CoalescesWrites(t *testing.T) {
	backing := NewMemory()
	d := NewDebounced(backing, time.Minute)
	mt := &manualTimers{}
	d.afterFunc = mt.afterFunc

	_ = d.Set("ratios", []byte("a"))
	_ = d.Set("ratios", []byte("b"))
	_ = d.Set("ratios", []byte("c"))

	if _, ok, _ := backing.Get("ratios"); ok {
		t.Fatal("nothing should be written before the delay elapses")
	}

	mt.fire()
	v, ok, _ := backing.Get("ratios")
	if !ok || string(v) != "c" {
		t.Errorf("backing value = %q, %v; want trailing write %q", v, ok, "c")
	}
}

func TestDebounced_GetSeesPending(t *testing.T) {
	d := NewDebounced(NewMemory(), time.Minute)
	mt := &manualTimers{}
	d.afterFunc = mt.afterFunc

	_ = d.Set("k", []byte("pending"))
	v, ok, err := d.Get("k")
	if err != nil || !ok || string(v) != "pending" {
		t.Errorf("Get during debounce = %q, %v, %v", v, ok, err)
	}
}

func TestDebounced_SkipsUnchangedPayload(t *testing.T) {
	backing := NewMemory()
	d := NewDebounced(backing, time.Minute)
	mt := &manualTimers{}
	d.afterFunc = mt.afterFunc

	_ = d.Set("k", []byte("same"))
	mt.fire()

	// Re-setting the identical payload schedules nothing.
	_ = d.Set("k", []byte("same"))
	if len(mt.callbacks) != 0 {
		t.Error("unchanged payload should not schedule a write")
	}

	// A different payload does.
	_ = d.Set("k", []byte("different"))
	if len(mt.callbacks) != 1 {
		t.Error("changed payload should schedule a write")
	}
}

func TestDebounced_Flush(t *testing.T) {
	backing := NewMemory()
	d := NewDebounced(backing, time.Minute)
	mt := &manualTimers{}
	d.afterFunc = mt.afterFunc

	_ = d.Set("a", []byte("1"))
	_ = d.Set("b", []byte("2"))
	d.Flush()

	if v, ok, _ := backing.Get("a"); !ok || string(v) != "1" {
		t.Errorf("a = %q, %v", v, ok)
	}
	if v, ok, _ := backing.Get("b"); !ok || string(v) != "2" {
		t.Errorf("b = %q, %v", v, ok)
	}
}
