// Package browser holds the per-instance interaction state of one mounted
// file browser: navigation, selection, sort, fuzzy filtering, column layout
// and the optimistic overlay, composed into a single Model.
//
// The Model is single-goroutine by design: every method is expected to run on
// the host's event loop. Host notifications (selection, navigation) are not
// delivered inline — they are queued as thunks capturing a snapshot at
// schedule time, and the host drains them via TakePending after the current
// handler completes.
package browser

import (
	"github.com/jtallard/dockside/internal/entry"
	"github.com/jtallard/dockside/internal/match"
	"github.com/jtallard/dockside/internal/overlay"
	"github.com/jtallard/dockside/internal/store"
)

// Callbacks are the host hooks a Model reports into. Any of them may be nil.
type Callbacks struct {
	// OnNavigate fires synchronously when the current path actually changes.
	OnNavigate func(path string)
	// OnSelect is delivered deferred, with the entries selected at the time
	// the change was made.
	OnSelect func(entries []entry.Entry)
	// OnOpen fires when a file entry is activated.
	OnOpen func(e entry.Entry)
	// OnDragMove asks the host to persist a cross-instance move. It is
	// invoked one tick after the optimistic mutation so the UI paints first.
	OnDragMove func(items []entry.Entry, targetPath, sourceInstanceID string)
}

// Config constructs a Model.
type Config struct {
	// ID identifies this instance to the drag coordinator.
	ID string
	// Tree is the host's immutable snapshot.
	Tree []entry.Entry
	// Callbacks are the host hooks.
	Callbacks Callbacks
	// Store, when set, persists the column layout under LayoutKey.
	Store     store.KV
	LayoutKey string
}

// Model is one browser instance's state. Created on mount, discarded on
// unmount.
type Model struct {
	id  string
	idx *entry.Index

	currentPath  string
	selection    map[string]bool
	sortCfg      SortConfig
	filterQuery  string
	filterActive bool
	expanded     map[string]bool
	columns      *ColumnLayout
	ov           *overlay.Overlay
	scroll       int

	pending []func()

	cb        Callbacks
	kv        store.KV
	layoutKey string
}

// New builds a Model rooted at "/". Persisted column ratios are restored when
// a store and key are configured.
func New(cfg Config) *Model {
	ratios := DefaultRatios()
	if cfg.Store != nil && cfg.LayoutKey != "" {
		var saved ColumnRatios
		if store.GetJSON(cfg.Store, cfg.LayoutKey, &saved) {
			ratios = saved
		}
	}

	return &Model{
		id:          cfg.ID,
		idx:         entry.NewIndex(cfg.Tree),
		currentPath: "/",
		selection:   make(map[string]bool),
		expanded:    make(map[string]bool),
		columns:     NewColumnLayout(ratios),
		ov:          overlay.New(),
		cb:          cfg.Callbacks,
		kv:          cfg.Store,
		layoutKey:   cfg.LayoutKey,
	}
}

// ID returns the instance identifier.
func (m *Model) ID() string { return m.id }

// CurrentPath returns the normalized current path.
func (m *Model) CurrentPath() string { return m.currentPath }

// SetCurrentPath navigates to path. Navigating to the path already shown is
// a strict no-op: selection, filter and the OnNavigate callback are all left
// untouched. Otherwise selection and filter are cleared, an empty OnSelect is
// deferred, and OnNavigate fires with the normalized path.
func (m *Model) SetCurrentPath(path string) {
	norm := entry.NormalizePath(path)
	if norm == m.currentPath {
		return
	}

	m.currentPath = norm
	m.selection = make(map[string]bool)
	m.filterQuery = ""
	m.filterActive = false
	m.scroll = 0
	m.scheduleSelectNotify()
	if m.cb.OnNavigate != nil {
		m.cb.OnNavigate(norm)
	}
}

// SelectItem mutates the selection. With multi false the selection becomes
// exactly {id} — a bare click never toggles off the sole selection. With
// multi true membership of id is toggled. Either way an OnSelect notification
// is deferred with a snapshot of the resulting selection.
func (m *Model) SelectItem(id string, multi bool) {
	if multi {
		if m.selection[id] {
			delete(m.selection, id)
		} else {
			m.selection[id] = true
		}
	} else {
		m.selection = map[string]bool{id: true}
	}
	m.scheduleSelectNotify()
}

// ClearSelection empties the selection, deferring an OnSelect notification
// with the now-empty set. A no-op when nothing is selected.
func (m *Model) ClearSelection() {
	if len(m.selection) == 0 {
		return
	}
	m.selection = map[string]bool{}
	m.scheduleSelectNotify()
}

// IsSelected reports membership of id in the selection.
func (m *Model) IsSelected(id string) bool { return m.selection[id] }

// SelectionCount returns the number of selected ids.
func (m *Model) SelectionCount() int { return len(m.selection) }

// SelectedEntries resolves the selection against the current listing, in
// listing order.
func (m *Model) SelectedEntries() []entry.Entry {
	files := m.Files()
	out := make([]entry.Entry, 0, len(m.selection))
	for _, e := range files {
		if m.selection[e.ID] {
			out = append(out, e)
		}
	}
	return out
}

// Files derives the visible listing: children of the current path, overlay
// applied in recorded order, fuzzy filter applied, then sorted with folders
// first.
func (m *Model) Files() []entry.Entry {
	items := m.idx.ChildrenAt(m.currentPath)
	items = m.ov.Apply(items, m.currentPath)

	if m.filterQuery != "" {
		kept := items[:0]
		for _, e := range items {
			if _, ok := match.Match(e.Name, m.filterQuery); ok {
				kept = append(kept, e)
			}
		}
		items = kept
	}

	sortEntries(items, m.sortCfg)
	return items
}

// MatchIndices returns the filter highlight positions for name, or nil when
// no filter is active.
func (m *Model) MatchIndices(name string) []int {
	if m.filterQuery == "" {
		return nil
	}
	indices, ok := match.Match(name, m.filterQuery)
	if !ok {
		return nil
	}
	return indices
}

// SetFilterQuery updates the filter text and prunes the selection down to
// entries still visible.
func (m *Model) SetFilterQuery(q string) {
	m.filterQuery = q
	m.pruneSelection()
}

// FilterQuery returns the filter text.
func (m *Model) FilterQuery() string { return m.filterQuery }

// SetFilterActive toggles the filter UI flag.
func (m *Model) SetFilterActive(active bool) { m.filterActive = active }

// FilterActive reports whether the filter UI is engaged.
func (m *Model) FilterActive() bool { return m.filterActive }

// SortConfig returns the active sort.
func (m *Model) SortConfig() SortConfig { return m.sortCfg }

// SetSortConfig replaces the sort outright.
func (m *Model) SetSortConfig(cfg SortConfig) { m.sortCfg = cfg }

// ClickSortField applies the column-header contract: clicking the current
// field toggles direction, clicking a new field resets to ascending.
func (m *Model) ClickSortField(field SortField) {
	if m.sortCfg.Field == field {
		if m.sortCfg.Direction == SortAsc {
			m.sortCfg.Direction = SortDesc
		} else {
			m.sortCfg.Direction = SortAsc
		}
		return
	}
	m.sortCfg = SortConfig{Field: field, Direction: SortAsc}
}

// ToggleExpanded flips the sidebar-tree expansion of a folder path.
func (m *Model) ToggleExpanded(path string) {
	path = entry.NormalizePath(path)
	if m.expanded[path] {
		delete(m.expanded, path)
	} else {
		m.expanded[path] = true
	}
}

// IsExpanded reports folder expansion state.
func (m *Model) IsExpanded(path string) bool {
	return m.expanded[entry.NormalizePath(path)]
}

// ScrollPosition returns the stored scroll offset.
func (m *Model) ScrollPosition() int { return m.scroll }

// SetScrollPosition stores the scroll offset (clamped at 0).
func (m *Model) SetScrollPosition(v int) {
	if v < 0 {
		v = 0
	}
	m.scroll = v
}

// Columns exposes the column layout.
func (m *Model) Columns() *ColumnLayout { return m.columns }

// ResizeColumnBorder forwards a border drag to the layout and schedules a
// debounced save of the resulting ratios.
func (m *Model) ResizeColumnBorder(b Border, dx, total int) {
	m.columns.ResizeBorder(b, dx, total)
	m.persistLayout()
}

// SetColumnRatios replaces the ratios (normalized) and persists them.
func (m *Model) SetColumnRatios(r ColumnRatios) {
	m.columns.SetRatios(r)
	m.persistLayout()
}

func (m *Model) persistLayout() {
	if m.kv == nil || m.layoutKey == "" {
		return
	}
	_ = store.SetJSON(m.kv, m.layoutKey, m.columns.Ratios())
}

// SetTree installs a fresh host snapshot. Selected ids still visible survive;
// the rest are dropped.
func (m *Model) SetTree(tree []entry.Entry) {
	m.idx = entry.NewIndex(tree)
	m.pruneSelection()
}

// Index exposes the snapshot index (drop-target checks, sidebar rendering).
func (m *Model) Index() *entry.Index { return m.idx }

// Open activates the entry with the given id: folders navigate into, files
// report OnOpen.
func (m *Model) Open(id string) {
	for _, e := range m.Files() {
		if e.ID != id {
			continue
		}
		if e.IsFolder() {
			m.SetCurrentPath(e.Path)
		} else if m.cb.OnOpen != nil {
			m.cb.OnOpen(e)
		}
		return
	}
}

// OptimisticRemove queues a Remove op and prunes the selection.
func (m *Model) OptimisticRemove(paths []string) {
	m.ov.Push(overlay.Remove{Paths: paths})
	m.pruneSelection()
}

// OptimisticInsert queues an Insert op.
func (m *Model) OptimisticInsert(parentPath string, item entry.Entry) {
	m.ov.Push(overlay.Insert{ParentPath: parentPath, Item: item})
}

// OptimisticUpdate queues an Update op and prunes the selection.
func (m *Model) OptimisticUpdate(oldPath string, patch overlay.Patch) {
	m.ov.Push(overlay.Update{OldPath: oldPath, Patch: patch})
	m.pruneSelection()
}

// OptimisticLen returns the number of queued overlay ops.
func (m *Model) OptimisticLen() int { return m.ov.Len() }

// ClearOptimistic drops the whole overlay (host success hook).
func (m *Model) ClearOptimistic() {
	m.ov.Clear()
	m.pruneSelection()
}

// RollbackOptimistic removes the last n overlay ops (host failure hook).
func (m *Model) RollbackOptimistic(n int) {
	m.ov.Rollback(n)
	m.pruneSelection()
}

// DragMove reports a committed cross-instance drop to the host.
func (m *Model) DragMove(items []entry.Entry, targetPath, sourceInstanceID string) {
	if m.cb.OnDragMove != nil {
		m.cb.OnDragMove(items, targetPath, sourceInstanceID)
	}
}

// TakePending returns the queued deferred notifications and empties the
// queue. The host runs them after the current synchronous handler completes;
// each observes the snapshot taken when it was scheduled.
func (m *Model) TakePending() []func() {
	p := m.pending
	m.pending = nil
	return p
}

// HasPending reports whether deferred notifications are queued.
func (m *Model) HasPending() bool { return len(m.pending) > 0 }

func (m *Model) scheduleSelectNotify() {
	if m.cb.OnSelect == nil {
		return
	}
	snapshot := m.SelectedEntries()
	cb := m.cb.OnSelect
	m.pending = append(m.pending, func() { cb(snapshot) })
}

// pruneSelection drops selected ids no longer visible post-filter and
// post-overlay.
func (m *Model) pruneSelection() {
	if len(m.selection) == 0 {
		return
	}
	visible := make(map[string]bool)
	for _, e := range m.Files() {
		visible[e.ID] = true
	}
	for id := range m.selection {
		if !visible[id] {
			delete(m.selection, id)
		}
	}
}
