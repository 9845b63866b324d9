package mouse

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jtallard/dockside/internal/gesture"
)

func TestHitMapTopmostWins(t *testing.T) {
	h := NewHitMap()
	h.AddRect("pane", 0, 0, 100, 40, nil)
	h.AddRect("row", 2, 5, 96, 1, "row-data")

	r := h.Test(10, 5)
	if r == nil || r.ID != "row" {
		t.Fatalf("Test(10,5) = %+v, want the row on top", r)
	}
	if r.Data != "row-data" {
		t.Fatalf("Data = %v", r.Data)
	}

	if r := h.Test(10, 20); r == nil || r.ID != "pane" {
		t.Fatalf("Test(10,20) = %+v, want the pane", r)
	}
	if r := h.Test(200, 200); r != nil {
		t.Fatalf("Test outside = %+v, want nil", r)
	}
}

func TestHitMapClear(t *testing.T) {
	h := NewHitMap()
	h.AddRect("a", 0, 0, 10, 10, nil)
	h.Clear()
	if r := h.Test(5, 5); r != nil {
		t.Fatalf("Test after Clear = %+v, want nil", r)
	}
}

func TestToPointer(t *testing.T) {
	tests := []struct {
		name     string
		msg      tea.MouseMsg
		wantOK   bool
		wantKind gesture.EventKind
		primary  bool
	}{
		{
			name:     "left press",
			msg:      tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, X: 4, Y: 7},
			wantOK:   true,
			wantKind: gesture.PointerDown,
			primary:  true,
		},
		{
			name:     "motion",
			msg:      tea.MouseMsg{Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft, X: 9, Y: 7},
			wantOK:   true,
			wantKind: gesture.PointerMove,
			primary:  true,
		},
		{
			name:     "release",
			msg:      tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonNone, X: 9, Y: 7},
			wantOK:   true,
			wantKind: gesture.PointerUp,
		},
		{
			name:   "wheel press is not a pointer event",
			msg:    tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := ToPointer(tt.msg)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ev.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", ev.Kind, tt.wantKind)
			}
			if ev.Primary != tt.primary {
				t.Errorf("Primary = %v, want %v", ev.Primary, tt.primary)
			}
			if ev.Device != gesture.DeviceMouse || ev.ID != 1 {
				t.Errorf("Device/ID = %v/%d", ev.Device, ev.ID)
			}
			if int(ev.X) != tt.msg.X || int(ev.Y) != tt.msg.Y {
				t.Errorf("pos = (%v,%v), want (%d,%d)", ev.X, ev.Y, tt.msg.X, tt.msg.Y)
			}
		})
	}
}

func TestToScroll(t *testing.T) {
	tests := []struct {
		name   string
		msg    tea.MouseMsg
		wantOK bool
		dx, dy int
	}{
		{
			name:   "wheel down",
			msg:    tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown},
			wantOK: true,
			dy:     3,
		},
		{
			name:   "wheel up",
			msg:    tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp},
			wantOK: true,
			dy:     -3,
		},
		{
			name:   "shift wheel scrolls horizontally",
			msg:    tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown, Shift: true},
			wantOK: true,
			dx:     10,
		},
		{
			name:   "native horizontal wheel reversed",
			msg:    tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelLeft},
			wantOK: true,
			dx:     10,
		},
		{
			name: "left press is not a scroll",
			msg:  tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := ToScroll(tt.msg)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if s.DeltaX != tt.dx || s.DeltaY != tt.dy {
				t.Errorf("delta = (%d,%d), want (%d,%d)", s.DeltaX, s.DeltaY, tt.dx, tt.dy)
			}
		})
	}
}
