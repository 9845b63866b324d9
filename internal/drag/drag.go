// Package drag coordinates one drag-and-drop session across every registered
// browser instance. The Coordinator is built once by the composition root and
// handed by reference to each pane — there is no package-level session.
//
// Lifecycle: Idle → Dragging → Ending → Idle. The Ending phase exists so the
// presentation layer can play the fly-to animation against a frozen session
// snapshot; the session resets to Idle after a fixed delay regardless of
// whether the drop committed.
package drag

import (
	"sync"
	"time"

	"github.com/jtallard/dockside/internal/entry"
)

// Phase is the session state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseEnding
)

// EndResetDelay is how long a session stays in Ending before resetting.
const EndResetDelay = 200 * time.Millisecond

// Drag preview dimensions, used to center the fly-to animation target on the
// drop rect.
const (
	previewWidth  = 20
	previewHeight = 3
)

// Rect is a screen-space rectangle (terminal cells in the bundled host).
type Rect struct {
	X, Y, W, H int
}

// DraggedItem is one entry in flight plus where it came from.
type DraggedItem struct {
	Item             entry.Entry
	SourceInstanceID string
	// SourcePath is the item's parent path at drag start.
	SourcePath string
}

// DropTarget is the folder currently hovered during a drag. TargetItem is nil
// when the hover is a pane's background (dropping into its current
// directory).
type DropTarget struct {
	InstanceID string
	TargetPath string
	TargetItem *entry.Entry
}

// Session is a snapshot of the active drag for preview and indicator
// rendering.
type Session struct {
	Phase            Phase
	Items            []DraggedItem
	SourceInstanceID string
	PointerX         int
	PointerY         int
	DropTarget       *DropTarget
	ValidDrop        bool
	Committed        bool
	EndTargetX       int
	EndTargetY       int
	HasEndTarget     bool
}

// Instance is the accessor/mutator surface a registered browser exposes to
// the coordinator. browser.Model satisfies it directly.
type Instance interface {
	ID() string
	CurrentPath() string
	Files() []entry.Entry
	OptimisticRemove(paths []string)
	OptimisticInsert(parentPath string, item entry.Entry)
	DragMove(items []entry.Entry, targetPath, sourceInstanceID string)
}

// StyleLock is the page-level feedback applied while a drag is in flight
// (grabbing cursor, selection disabled). Release is called exactly once per
// session.
type StyleLock struct {
	Acquire func()
	Release func()
}

// Coordinator owns the single process-wide drag session. It is the one
// genuinely shared object in the core (the reset timer and multiple panes
// touch it), so it is mutex-guarded.
type Coordinator struct {
	mu        sync.Mutex
	instances map[string]Instance
	session   Session
	dropRect  Rect
	hasRect   bool
	lockHeld  bool

	// resetGen invalidates the pending end-of-session reset when a new drag
	// starts inside the Ending window. resetTimer is stopped as well, but the
	// generation check is what makes an already-fired timer harmless.
	resetTimer *time.Timer
	resetGen   uint64

	lock StyleLock

	// afterFunc and deferCall are swappable for deterministic tests.
	afterFunc func(time.Duration, func()) *time.Timer
	pending   []func()
}

// New builds a Coordinator. lock functions may be nil.
func New(lock StyleLock) *Coordinator {
	return &Coordinator{
		instances: make(map[string]Instance),
		lock:      lock,
		afterFunc: time.AfterFunc,
	}
}

// RegisterInstance makes a browser visible to drag sessions.
func (c *Coordinator) RegisterInstance(inst Instance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[inst.ID()] = inst
}

// UnregisterInstance removes a browser (on unmount).
func (c *Coordinator) UnregisterInstance(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.instances, id)
}

// Session returns a copy of the current session for rendering.
func (c *Coordinator) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	s.Items = append([]DraggedItem(nil), c.session.Items...)
	if c.session.DropTarget != nil {
		t := *c.session.DropTarget
		s.DropTarget = &t
	}
	return s
}

// Dragging reports whether a drag is in flight.
func (c *Coordinator) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Phase == PhaseDragging
}

// StartDrag begins a session with the given items at pointer (x, y). An empty
// item set is a no-op. A second StartDrag while a session is active silently
// overwrites it; callers guard against re-entrant starts.
func (c *Coordinator) StartDrag(items []DraggedItem, x, y int) {
	if len(items) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// A start during the previous session's Ending window supersedes it; the
	// stale reset must not fire and wipe the new session.
	c.resetGen++
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}

	if !c.lockHeld {
		if c.lock.Acquire != nil {
			c.lock.Acquire()
		}
		c.lockHeld = true
	}

	c.session = Session{
		Phase:            PhaseDragging,
		Items:            append([]DraggedItem(nil), items...),
		SourceInstanceID: items[0].SourceInstanceID,
		PointerX:         x,
		PointerY:         y,
	}
	c.dropRect = Rect{}
	c.hasRect = false
}

// UpdateDrag records the pointer position. No validation happens here.
func (c *Coordinator) UpdateDrag(x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Phase != PhaseDragging {
		return
	}
	c.session.PointerX = x
	c.session.PointerY = y
}

// SetDropTarget records the hover candidate, its validity and its screen
// rect (cached for the fly-to animation). Nothing else is mutated.
func (c *Coordinator) SetDropTarget(target *DropTarget, valid bool, rect *Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Phase != PhaseDragging {
		return
	}
	c.session.DropTarget = target
	c.session.ValidDrop = valid
	if rect != nil {
		c.dropRect = *rect
		c.hasRect = true
	} else {
		c.hasRect = false
	}
}

// CanDropOn reports whether items may be dropped on the target. Pure: no
// session state is consulted. The rules, in order: a drop needs items; a file
// can never receive one; a folder cannot be dropped into itself or any of its
// descendants; a same-instance drop into an item's current parent is a no-op
// move and is rejected.
func CanDropOn(items []DraggedItem, targetPath string, targetItem *entry.Entry, targetInstanceID string) bool {
	if len(items) == 0 {
		return false
	}
	if targetItem != nil && !targetItem.IsFolder() {
		return false
	}
	targetPath = entry.NormalizePath(targetPath)

	for _, it := range items {
		itemPath := entry.NormalizePath(it.Item.Path)
		if it.Item.IsFolder() {
			if targetPath == itemPath || entry.IsDescendant(itemPath, targetPath) {
				return false
			}
		}
		if it.SourceInstanceID == targetInstanceID && targetPath == entry.ParentPath(itemPath) {
			return false
		}
	}
	return true
}

// EndDrag finishes the session. commit is downgraded to false unless a drop
// target exists and was marked valid. On commit the optimistic mutations run
// synchronously — remove from the source view, insert recomputed copies into
// the target view — and the target's DragMove callback is deferred one tick
// so the optimistic UI paints before any backend round-trip. Ending resets to
// Idle after EndResetDelay no matter what.
func (c *Coordinator) EndDrag(commit bool) {
	c.mu.Lock()

	if c.session.Phase != PhaseDragging {
		c.mu.Unlock()
		return
	}

	if c.lockHeld {
		if c.lock.Release != nil {
			c.lock.Release()
		}
		c.lockHeld = false
	}

	shouldCommit := commit && c.session.DropTarget != nil && c.session.ValidDrop

	if shouldCommit && c.hasRect {
		c.session.EndTargetX = c.dropRect.X + c.dropRect.W/2 - previewWidth/2
		c.session.EndTargetY = c.dropRect.Y + c.dropRect.H/2 - previewHeight/2
		c.session.HasEndTarget = true
	}

	c.session.Phase = PhaseEnding
	c.session.Committed = shouldCommit

	if shouldCommit {
		target := *c.session.DropTarget
		items := append([]DraggedItem(nil), c.session.Items...)
		src := c.instances[c.session.SourceInstanceID]
		tgt := c.instances[target.InstanceID]
		sourceID := c.session.SourceInstanceID

		if src != nil {
			paths := make([]string, len(items))
			for i, it := range items {
				paths[i] = it.Item.Path
			}
			src.OptimisticRemove(paths)
		}
		if tgt != nil {
			originals := make([]entry.Entry, len(items))
			for i, it := range items {
				cp := it.Item
				cp.Path = entry.Join(target.TargetPath, cp.Name)
				tgt.OptimisticInsert(target.TargetPath, cp)
				originals[i] = it.Item
			}
			c.pending = append(c.pending, func() {
				tgt.DragMove(originals, target.TargetPath, sourceID)
			})
		}
	}

	c.resetGen++
	gen := c.resetGen
	c.resetTimer = c.afterFunc(EndResetDelay, func() { c.resetSession(gen) })
	c.mu.Unlock()
}

func (c *Coordinator) resetSession(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.resetGen {
		return
	}
	c.resetTimer = nil
	c.session = Session{}
	c.dropRect = Rect{}
	c.hasRect = false
}

// TakePending hands the deferred move callbacks to the host loop, which runs
// them one tick after the optimistic mutation.
func (c *Coordinator) TakePending() []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pending
	c.pending = nil
	return p
}

// HasPending reports whether deferred callbacks are queued.
func (c *Coordinator) HasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}
