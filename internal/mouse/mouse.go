// Package mouse maps terminal mouse input onto the rendered layout: a hit
// map of named regions, a translator from bubbletea mouse messages to
// pointer events, and wheel classification.
package mouse

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jtallard/dockside/internal/gesture"
)

// Rect is a rectangle in terminal cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Region is a named hit region with caller data attached.
type Region struct {
	ID   string
	Rect Rect
	Data any
}

// HitMap records the clickable regions of the last rendered frame. It is
// rebuilt every frame: Clear, then Add in paint order.
type HitMap struct {
	regions []Region
}

func NewHitMap() *HitMap {
	return &HitMap{regions: make([]Region, 0, 64)}
}

// Clear drops all regions, keeping the backing array.
func (h *HitMap) Clear() {
	h.regions = h.regions[:0]
}

// Add registers a region. Later additions sit on top for hit testing.
func (h *HitMap) Add(id string, rect Rect, data any) {
	h.regions = append(h.regions, Region{ID: id, Rect: rect, Data: data})
}

// AddRect is Add with unpacked coordinates.
func (h *HitMap) AddRect(id string, x, y, w, height int, data any) {
	h.Add(id, Rect{X: x, Y: y, W: w, H: height}, data)
}

// Test returns the topmost region containing (x, y), or nil.
func (h *HitMap) Test(x, y int) *Region {
	for i := len(h.regions) - 1; i >= 0; i-- {
		if h.regions[i].Rect.Contains(x, y) {
			return &h.regions[i]
		}
	}
	return nil
}

// Regions returns a copy of the registered regions.
func (h *HitMap) Regions() []Region {
	return append([]Region(nil), h.regions...)
}

// ToPointer converts a bubbletea mouse message into a pointer event for a
// gesture recognizer. Wheel buttons do not translate; ok is false for them
// and for unknown actions. Terminal mice carry no pointer id, so ID is
// always 1.
func ToPointer(msg tea.MouseMsg) (ev gesture.PointerEvent, ok bool) {
	ev = gesture.PointerEvent{
		Device:  gesture.DeviceMouse,
		ID:      1,
		X:       float64(msg.X),
		Y:       float64(msg.Y),
		Primary: msg.Button == tea.MouseButtonLeft,
		Shift:   msg.Shift,
		Ctrl:    msg.Ctrl,
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if isWheel(msg.Button) {
			return ev, false
		}
		ev.Kind = gesture.PointerDown
		return ev, true
	case tea.MouseActionMotion:
		ev.Kind = gesture.PointerMove
		return ev, true
	case tea.MouseActionRelease:
		ev.Kind = gesture.PointerUp
		return ev, true
	}
	return ev, false
}

func isWheel(b tea.MouseButton) bool {
	switch b {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown,
		tea.MouseButtonWheelLeft, tea.MouseButtonWheelRight:
		return true
	}
	return false
}

// Scroll is a classified wheel event.
type Scroll struct {
	// DeltaY is rows (positive scrolls down); DeltaX is columns (positive
	// scrolls right). Exactly one is non-zero.
	DeltaX, DeltaY int
	X, Y           int
}

// ToScroll classifies wheel presses. Shift turns a vertical wheel into a
// horizontal scroll; native horizontal wheels are reversed to match trackpad
// natural scrolling.
func ToScroll(msg tea.MouseMsg) (Scroll, bool) {
	if msg.Action != tea.MouseActionPress {
		return Scroll{}, false
	}
	s := Scroll{X: msg.X, Y: msg.Y}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if msg.Shift {
			s.DeltaX = -10
		} else {
			s.DeltaY = -3
		}
	case tea.MouseButtonWheelDown:
		if msg.Shift {
			s.DeltaX = 10
		} else {
			s.DeltaY = 3
		}
	case tea.MouseButtonWheelLeft:
		s.DeltaX = 10
	case tea.MouseButtonWheelRight:
		s.DeltaX = -10
	default:
		return Scroll{}, false
	}
	return s, true
}
