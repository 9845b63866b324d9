// Package gesture disambiguates click, double-click, long-press and
// drag-start from raw pointer events, one Recognizer per interactive file
// entry surface.
//
// The recognizer is owned by a single goroutine (the host's event loop); the
// only concurrent visitor is the long-press timer. The timer callback never
// touches selection or the coordinator directly: it flips guarded flags and
// queues the resolution, which the host drains on its own loop via
// TakePending. Teardown stops the timer and cancels any in-flight drag, so a
// recognizer cannot leak its listeners.
package gesture

import (
	"math"
	"sync"
	"time"

	"github.com/jtallard/dockside/internal/drag"
	"github.com/jtallard/dockside/internal/entry"
)

// Defaults for the recognizer thresholds.
const (
	DefaultLongPressDelay      = 500 * time.Millisecond
	DefaultMoveCancelTolerance = 10.0
	DefaultDragStartDistance   = 5.0
	DefaultDoubleClickWindow   = 400 * time.Millisecond
)

// Device is the pointer type. Mouse interactions bypass the long-press path.
type Device int

const (
	DeviceMouse Device = iota
	DeviceTouch
	DevicePen
)

// EventKind is the raw pointer transition.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerCancel
)

// PointerEvent is one raw pointer sample.
type PointerEvent struct {
	Kind    EventKind
	Device  Device
	ID      int
	X, Y    float64
	Primary bool // primary button held (mouse) / primary contact
	Shift   bool
	Ctrl    bool
}

// Callbacks are the recognizer's outputs. Any may be nil.
type Callbacks struct {
	// OnClick fires for a plain trailing click (not suppressed, not the
	// second click of a double-click pair).
	OnClick func(ev PointerEvent)
	// OnDoubleClick fires for the second click inside the double-click
	// window.
	OnDoubleClick func(ev PointerEvent)
	// OnContextMenu fires at the press position when a long-press resolves
	// to a menu. The pressed item is already part of the selection.
	OnContextMenu func(x, y float64)
}

// Config wires a Recognizer to its entry, its browser's selection and the
// shared drag coordinator.
type Config struct {
	// Item is the entry this surface represents.
	Item entry.Entry
	// InstanceID identifies the owning browser to the coordinator.
	InstanceID string
	// Coordinator receives StartDrag/UpdateDrag/EndDrag. Required for drag
	// recognition; nil disables it.
	Coordinator *drag.Coordinator

	// IsSelected reports whether the pressed item is currently selected.
	IsSelected func() bool
	// Select makes the pressed item the sole selection (multi=false is the
	// only mode the recognizer uses).
	Select func()
	// DraggedSet resolves the current selection into dragged items; called
	// after the drag-set selection rule ran. An empty result falls back to
	// the pressed item alone.
	DraggedSet func() []drag.DraggedItem

	// LongPressStartsDrag makes a long-press begin a drag instead of opening
	// the context menu (drag-enabled call sites).
	LongPressStartsDrag bool

	// Tuning; zero values take the defaults.
	LongPressDelay      time.Duration
	MoveCancelTolerance float64
	DragStartDistance   float64
	DoubleClickWindow   time.Duration

	Callbacks Callbacks
}

// Recognizer tracks one pointer press over one entry surface.
type Recognizer struct {
	cfg Config

	mu               sync.Mutex
	pressed          bool
	pointerID        int
	device           Device
	startX, startY   float64
	dragging         bool
	longPressTimer   *time.Timer
	longPressPending bool
	suppressClick    bool
	lastClickAt      time.Time
	torn             bool
	pending          []func()

	// swappable for deterministic tests
	afterFunc func(time.Duration, func()) *time.Timer
	now       func() time.Time
}

// New builds a Recognizer, filling zero tuning values with the defaults.
func New(cfg Config) *Recognizer {
	if cfg.LongPressDelay <= 0 {
		cfg.LongPressDelay = DefaultLongPressDelay
	}
	if cfg.MoveCancelTolerance <= 0 {
		cfg.MoveCancelTolerance = DefaultMoveCancelTolerance
	}
	if cfg.DragStartDistance <= 0 {
		cfg.DragStartDistance = DefaultDragStartDistance
	}
	if cfg.DoubleClickWindow <= 0 {
		cfg.DoubleClickWindow = DefaultDoubleClickWindow
	}
	return &Recognizer{
		cfg:       cfg,
		afterFunc: time.AfterFunc,
		now:       time.Now,
	}
}

// Handle feeds one pointer event through the state machine.
func (r *Recognizer) Handle(ev PointerEvent) {
	switch ev.Kind {
	case PointerDown:
		r.pointerDown(ev)
	case PointerMove:
		r.pointerMove(ev)
	case PointerUp:
		r.pointerUp(ev)
	case PointerCancel:
		r.pointerCancel(ev)
	}
}

// Teardown releases the press state: timers stop and an active drag is
// cancelled. Call on component unmount.
func (r *Recognizer) Teardown() {
	r.mu.Lock()
	r.stopLongPressLocked()
	wasDragging := r.dragging
	r.dragging = false
	r.pressed = false
	r.torn = true
	r.pending = nil
	r.mu.Unlock()

	if wasDragging && r.cfg.Coordinator != nil {
		r.cfg.Coordinator.EndDrag(false)
	}
}

func (r *Recognizer) pointerDown(ev PointerEvent) {
	r.mu.Lock()
	// The suppress flag self-clears on the next pointer-down.
	r.suppressClick = false
	r.pressed = true
	r.pointerID = ev.ID
	r.device = ev.Device
	r.startX, r.startY = ev.X, ev.Y
	r.dragging = false
	r.stopLongPressLocked()

	if ev.Device == DeviceTouch || ev.Device == DevicePen {
		r.longPressPending = true
		r.longPressTimer = r.afterFunc(r.cfg.LongPressDelay, r.fireLongPress)
	}
	r.mu.Unlock()
}

func (r *Recognizer) pointerMove(ev PointerEvent) {
	r.mu.Lock()
	if !r.pressed || ev.ID != r.pointerID {
		r.mu.Unlock()
		return
	}
	dist := math.Hypot(ev.X-r.startX, ev.Y-r.startY)

	if r.longPressPending && dist > r.cfg.MoveCancelTolerance {
		// Finger moved before the timer fired: this is a scroll/pan, not a
		// press. Swallow the trailing click too.
		r.stopLongPressLocked()
		r.suppressClick = true
	}

	if r.dragging {
		r.mu.Unlock()
		if r.cfg.Coordinator != nil {
			r.cfg.Coordinator.UpdateDrag(int(ev.X), int(ev.Y))
		}
		return
	}

	startDrag := ev.Device == DeviceMouse && ev.Primary &&
		dist > r.cfg.DragStartDistance && r.cfg.Coordinator != nil
	if startDrag {
		r.dragging = true
	}
	r.mu.Unlock()

	if startDrag {
		r.beginDrag(ev.X, ev.Y)
	}
}

func (r *Recognizer) pointerUp(ev PointerEvent) {
	r.mu.Lock()
	if !r.pressed || ev.ID != r.pointerID {
		r.mu.Unlock()
		return
	}
	r.pressed = false
	r.stopLongPressLocked()

	if r.dragging {
		r.dragging = false
		r.mu.Unlock()
		if r.cfg.Coordinator != nil {
			r.cfg.Coordinator.EndDrag(true)
		}
		return
	}

	if r.suppressClick {
		// Exactly one click is swallowed; the flag clears on use.
		r.suppressClick = false
		r.mu.Unlock()
		return
	}

	now := r.now()
	isDouble := !r.lastClickAt.IsZero() && now.Sub(r.lastClickAt) < r.cfg.DoubleClickWindow
	if isDouble {
		// Reset so a triple-click does not count as another double.
		r.lastClickAt = time.Time{}
	} else {
		r.lastClickAt = now
	}
	r.mu.Unlock()

	if isDouble {
		if r.cfg.Callbacks.OnDoubleClick != nil {
			r.cfg.Callbacks.OnDoubleClick(ev)
		}
	} else if r.cfg.Callbacks.OnClick != nil {
		r.cfg.Callbacks.OnClick(ev)
	}
}

func (r *Recognizer) pointerCancel(ev PointerEvent) {
	r.mu.Lock()
	if !r.pressed || ev.ID != r.pointerID {
		r.mu.Unlock()
		return
	}
	r.pressed = false
	r.stopLongPressLocked()
	wasDragging := r.dragging
	r.dragging = false
	r.mu.Unlock()

	if wasDragging && r.cfg.Coordinator != nil {
		r.cfg.Coordinator.EndDrag(false)
	}
}

// fireLongPress runs on the timer goroutine when the long-press delay elapses
// (touch/pen only). It must not call into selection or the coordinator from
// here: those mutate host-owned state. It flips the guarded flags and queues
// the resolution for the host loop to drain.
func (r *Recognizer) fireLongPress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.longPressPending || !r.pressed {
		return
	}
	r.longPressPending = false
	r.suppressClick = true
	x, y := r.startX, r.startY
	startsDrag := r.cfg.LongPressStartsDrag && r.cfg.Coordinator != nil

	if startsDrag {
		r.dragging = true
		r.pending = append(r.pending, func() {
			r.mu.Lock()
			live := r.dragging && !r.torn
			r.mu.Unlock()
			if live {
				r.beginDrag(x, y)
			}
		})
		return
	}

	// Context menu targets the pressed item's selection: an already-selected
	// item keeps the multi-selection, anything else becomes the sole
	// selection.
	r.pending = append(r.pending, func() {
		r.mu.Lock()
		live := !r.torn
		r.mu.Unlock()
		if !live {
			return
		}
		r.ensurePressedSelected()
		if r.cfg.Callbacks.OnContextMenu != nil {
			r.cfg.Callbacks.OnContextMenu(x, y)
		}
	})
}

// TakePending hands queued long-press resolutions to the host loop. The host
// drains after every event batch, the same way it drains the browser and
// coordinator queues.
func (r *Recognizer) TakePending() []func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.pending
	r.pending = nil
	return p
}

// HasPending reports whether a long-press resolution is queued.
func (r *Recognizer) HasPending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending) > 0
}

// beginDrag applies the drag-set selection rule and opens the coordinator
// session.
func (r *Recognizer) beginDrag(x, y float64) {
	r.ensurePressedSelected()

	var items []drag.DraggedItem
	if r.cfg.DraggedSet != nil {
		items = r.cfg.DraggedSet()
	}
	if len(items) == 0 {
		items = []drag.DraggedItem{{
			Item:             r.cfg.Item,
			SourceInstanceID: r.cfg.InstanceID,
			SourcePath:       entry.ParentPath(r.cfg.Item.Path),
		}}
	}
	r.cfg.Coordinator.StartDrag(items, int(x), int(y))
}

func (r *Recognizer) ensurePressedSelected() {
	if r.cfg.IsSelected != nil && r.cfg.IsSelected() {
		return
	}
	if r.cfg.Select != nil {
		r.cfg.Select()
	}
}

func (r *Recognizer) stopLongPressLocked() {
	if r.longPressTimer != nil {
		r.longPressTimer.Stop()
		r.longPressTimer = nil
	}
	r.longPressPending = false
}
