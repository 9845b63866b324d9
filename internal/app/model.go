// Package app hosts the dual-pane browser UI: two browser models over one
// snapshot, a shared drag coordinator, and the glue between terminal input
// and the interaction core.
package app

import (
	"log/slog"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jtallard/dockside/internal/browser"
	"github.com/jtallard/dockside/internal/drag"
	"github.com/jtallard/dockside/internal/entry"
	"github.com/jtallard/dockside/internal/gesture"
	"github.com/jtallard/dockside/internal/mouse"
	"github.com/jtallard/dockside/internal/store"
	"github.com/jtallard/dockside/internal/watch"
)

const (
	paneLeft  = 0
	paneRight = 1

	splitKey     = "layout/split"
	defaultSplit = 0.5
	minSplit     = 0.2
	maxSplit     = 0.8

	tickInterval = 100 * time.Millisecond
)

var paneIDs = [2]string{"left", "right"}

// Hit region payloads registered by View.
type (
	rowHit struct {
		Pane  int
		Entry entry.Entry
	}
	paneHit struct {
		Pane int
	}
	headerHit struct {
		Pane  int
		Field browser.SortField
	}
	borderHit struct {
		Pane   int
		Border browser.Border
	}
	splitHit struct{}
)

type borderDrag struct {
	Pane   int
	Border browser.Border
	LastX  int
}

type (
	tickMsg        time.Time
	treeChangedMsg struct{}
	treeLoadedMsg  struct {
		Root []entry.Entry
		Err  error
	}
	movesDoneMsg struct {
		failed bool
	}
)

// pendingMove is one file move requested by a committed drop, resolved
// against the host file system after the event that queued it.
type pendingMove struct {
	Items      []entry.Entry
	TargetPath string
	SourceID   string
}

// Model is the root bubbletea model.
type Model struct {
	root string
	st   store.KV
	log  *slog.Logger

	panes   [2]*browser.Model
	coord   *drag.Coordinator
	watcher *watch.Watcher
	flat    []entry.Entry

	width, height int
	ready         bool
	focused       int
	cursor        [2]int

	hits       *mouse.HitMap
	recognizer *gesture.Recognizer
	hoverRowID string
	dragStyles bool // styling lock: hover feedback suppressed while held

	split      float64
	splitDrag  bool
	borderDrag *borderDrag

	filterOpen  bool
	filterPane  int
	filterInput textinput.Model

	quickOpen    bool
	quickInput   textinput.Model
	quickResults []quickOpenEntry
	quickCursor  int

	statusMsg     string
	statusExpiry  time.Time
	statusIsError bool

	moves []pendingMove
}

// New builds the host over the directory at root. The store persists layout
// between runs; watcher is optional (nil disables live reload).
func New(root string, st store.KV, watcher *watch.Watcher, log *slog.Logger) *Model {
	m := &Model{
		root:    root,
		st:      st,
		log:     log,
		watcher: watcher,
		hits:    mouse.NewHitMap(),
		split:   defaultSplit,
	}

	m.coord = drag.New(drag.StyleLock{
		Acquire: func() { m.dragStyles = true },
		Release: func() { m.dragStyles = false },
	})

	for i := range m.panes {
		i := i
		m.panes[i] = browser.New(browser.Config{
			ID:        paneIDs[i],
			Store:     st,
			LayoutKey: "layout/columns/" + paneIDs[i],
			Callbacks: browser.Callbacks{
				OnNavigate: func(path string) {
					m.cursor[i] = 0
					log.Debug("navigate", "pane", paneIDs[i], "path", path)
				},
				OnSelect: func(entries []entry.Entry) {
					log.Debug("selection", "pane", paneIDs[i], "count", len(entries))
				},
				OnOpen: func(e entry.Entry) {
					m.toast("open "+e.Name, false)
				},
				OnDragMove: func(items []entry.Entry, targetPath, sourceID string) {
					m.moves = append(m.moves, pendingMove{
						Items:      items,
						TargetPath: targetPath,
						SourceID:   sourceID,
					})
				},
			},
		})
		m.coord.RegisterInstance(m.panes[i])
	}

	var split float64
	if store.GetJSON(st, splitKey, &split) && split >= minSplit && split <= maxSplit {
		m.split = split
	}

	fi := textinput.New()
	fi.Placeholder = "filter"
	fi.CharLimit = 64
	m.filterInput = fi

	qi := textinput.New()
	qi.Placeholder = "jump to file"
	qi.CharLimit = 128
	m.quickInput = qi

	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadTreeCmd(), tickCmd()}
	if m.watcher != nil {
		cmds = append(cmds, waitForChange(m.watcher))
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) loadTreeCmd() tea.Cmd {
	root := m.root
	return func() tea.Msg {
		tree, err := loadTree(root)
		return treeLoadedMsg{Root: tree, Err: err}
	}
}

func waitForChange(w *watch.Watcher) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-w.Changes(); !ok {
			return nil
		}
		return treeChangedMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case treeLoadedMsg:
		if msg.Err != nil {
			m.log.Error("load tree", "err", msg.Err)
			m.toast("reload failed: "+msg.Err.Error(), true)
			break
		}
		m.flat = flattenTree(msg.Root)
		for _, p := range m.panes {
			p.SetTree(msg.Root)
			// Disk now reflects any committed moves.
			p.ClearOptimistic()
		}
		m.ready = true

	case treeChangedMsg:
		cmds = append(cmds, m.loadTreeCmd())
		if m.watcher != nil {
			cmds = append(cmds, waitForChange(m.watcher))
		}

	case movesDoneMsg:
		if msg.failed {
			for _, p := range m.panes {
				p.ClearOptimistic()
			}
			m.toast("move failed", true)
		}
		cmds = append(cmds, m.loadTreeCmd())

	case tickMsg:
		m.clearExpiredToast()
		cmds = append(cmds, tickCmd())

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg)...)

	case tea.MouseMsg:
		m.handleMouse(msg)
	}

	m.drainPending()
	if cmd := m.flushMoves(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// drainPending runs the deferred notification thunks queued by the core.
// Thunks can queue further thunks; the loop is capped so a pathological
// cycle cannot wedge the UI.
func (m *Model) drainPending() {
	for i := 0; i < 8; i++ {
		var thunks []func()
		for _, p := range m.panes {
			thunks = append(thunks, p.TakePending()...)
		}
		thunks = append(thunks, m.coord.TakePending()...)
		if m.recognizer != nil {
			thunks = append(thunks, m.recognizer.TakePending()...)
		}
		if len(thunks) == 0 {
			return
		}
		for _, fn := range thunks {
			fn()
		}
	}
}

// flushMoves applies committed drops to the host file system. The renames run
// inside the returned command, off the update path, so the optimistic overlay
// paints a frame before any disk work; movesDoneMsg then reloads the tree,
// rolling the overlays back first if anything failed.
func (m *Model) flushMoves() tea.Cmd {
	if len(m.moves) == 0 {
		return nil
	}
	moves := m.moves
	m.moves = nil

	root := m.root
	log := m.log
	return func() tea.Msg {
		failed := false
		for _, mv := range moves {
			for _, it := range mv.Items {
				from := hostPath(root, it.Path)
				to := hostPath(root, entry.Join(mv.TargetPath, it.Name))
				if err := os.Rename(from, to); err != nil {
					log.Error("move", "from", from, "to", to, "err", err)
					failed = true
				}
			}
		}
		return movesDoneMsg{failed: failed}
	}
}

func (m *Model) pane(i int) *browser.Model { return m.panes[i] }

func (m *Model) focusedPane() *browser.Model { return m.panes[m.focused] }

func (m *Model) toast(msg string, isError bool) {
	m.statusMsg = msg
	m.statusIsError = isError
	m.statusExpiry = time.Now().Add(3 * time.Second)
}

func (m *Model) clearExpiredToast() {
	if m.statusMsg != "" && time.Now().After(m.statusExpiry) {
		m.statusMsg = ""
		m.statusIsError = false
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) []tea.Cmd {
	if m.quickOpen {
		return m.handleQuickOpenKey(msg)
	}
	if m.filterOpen && m.filterPane == m.focused {
		if cmds := m.handleFilterKey(msg); cmds != nil {
			return cmds
		}
	}

	p := m.focusedPane()
	switch msg.String() {
	case "ctrl+c", "q":
		return []tea.Cmd{tea.Quit}
	case "tab":
		m.focused = (m.focused + 1) % len(m.panes)
	case "/":
		m.filterOpen = true
		m.filterPane = m.focused
		m.filterInput.SetValue(p.FilterQuery())
		m.filterInput.Focus()
		p.SetFilterActive(true)
	case "ctrl+p":
		m.quickOpen = true
		m.quickInput.SetValue("")
		m.quickInput.Focus()
		m.quickResults = rankQuickOpen("", m.flat)
		m.quickCursor = 0
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "enter":
		if e, ok := m.cursorEntry(); ok {
			p.Open(e.ID)
		}
	case "left", "h", "backspace":
		if p.CurrentPath() != "/" {
			p.SetCurrentPath(entry.ParentPath(p.CurrentPath()))
		}
	case "right", "l":
		if e, ok := m.cursorEntry(); ok && e.IsFolder() {
			p.SetCurrentPath(e.Path)
		}
	case " ":
		if e, ok := m.cursorEntry(); ok {
			p.SelectItem(e.ID, true)
		}
	case "y":
		m.copySelectionPath()
	case "n":
		p.ClickSortField(browser.SortByName)
	case "s":
		p.ClickSortField(browser.SortBySize)
	case "t":
		p.ClickSortField(browser.SortByModified)
	case "1":
		m.toggleColumn(browser.ColumnModified)
	case "2":
		m.toggleColumn(browser.ColumnSize)
	case "esc":
		p.ClearSelection()
	}
	return nil
}

// toggleColumn flips a column's visibility; the hidden column's ratio is
// preserved by the layout, so toggling back restores the old widths.
func (m *Model) toggleColumn(c browser.Column) {
	cols := m.focusedPane().Columns()
	mod := cols.Visible(browser.ColumnModified)
	size := cols.Visible(browser.ColumnSize)
	switch c {
	case browser.ColumnModified:
		mod = !mod
	case browser.ColumnSize:
		size = !size
	}
	cols.SetVisible(mod, size)
}

// handleFilterKey feeds the filter input; nil means the key was not consumed
// and falls through to the global bindings.
func (m *Model) handleFilterKey(msg tea.KeyMsg) []tea.Cmd {
	p := m.pane(m.filterPane)
	switch msg.String() {
	case "esc":
		m.filterOpen = false
		m.filterInput.Blur()
		p.SetFilterActive(false)
		p.SetFilterQuery("")
		return []tea.Cmd{nil}
	case "enter":
		m.filterOpen = false
		m.filterInput.Blur()
		return []tea.Cmd{nil}
	case "up", "down", "tab", "ctrl+c":
		return nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	p.SetFilterQuery(m.filterInput.Value())
	return []tea.Cmd{cmd}
}

func (m *Model) handleQuickOpenKey(msg tea.KeyMsg) []tea.Cmd {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.quickOpen = false
		m.quickInput.Blur()
		return nil
	case "up":
		if m.quickCursor > 0 {
			m.quickCursor--
		}
		return nil
	case "down":
		if m.quickCursor < len(m.quickResults)-1 {
			m.quickCursor++
		}
		return nil
	case "enter":
		m.quickOpen = false
		m.quickInput.Blur()
		if m.quickCursor < len(m.quickResults) {
			m.jumpTo(m.quickResults[m.quickCursor].Entry)
		}
		return nil
	}
	var cmd tea.Cmd
	m.quickInput, cmd = m.quickInput.Update(msg)
	m.quickResults = rankQuickOpen(m.quickInput.Value(), m.flat)
	m.quickCursor = 0
	return []tea.Cmd{cmd}
}

// jumpTo navigates the focused pane to the entry's parent and selects it.
func (m *Model) jumpTo(e entry.Entry) {
	p := m.focusedPane()
	if e.IsFolder() {
		p.SetCurrentPath(e.Path)
		return
	}
	p.SetCurrentPath(entry.ParentPath(e.Path))
	p.SelectItem(e.ID, false)
	m.syncCursorTo(e.ID)
}

func (m *Model) moveCursor(delta int) {
	p := m.focusedPane()
	files := p.Files()
	if len(files) == 0 {
		return
	}
	c := m.cursor[m.focused] + delta
	if c < 0 {
		c = 0
	}
	if c >= len(files) {
		c = len(files) - 1
	}
	m.cursor[m.focused] = c
	p.SelectItem(files[c].ID, false)
	m.scrollCursorIntoView()
}

func (m *Model) cursorEntry() (entry.Entry, bool) {
	files := m.focusedPane().Files()
	c := m.cursor[m.focused]
	if c < 0 || c >= len(files) {
		return entry.Entry{}, false
	}
	return files[c], true
}

func (m *Model) syncCursorTo(id string) {
	files := m.focusedPane().Files()
	for i, e := range files {
		if e.ID == id {
			m.cursor[m.focused] = i
			m.scrollCursorIntoView()
			return
		}
	}
}

func (m *Model) scrollCursorIntoView() {
	p := m.focusedPane()
	rows := m.paneRowCount()
	if rows <= 0 {
		return
	}
	c := m.cursor[m.focused]
	top := p.ScrollPosition()
	if c < top {
		p.SetScrollPosition(c)
	} else if c >= top+rows {
		p.SetScrollPosition(c - rows + 1)
	}
}

func (m *Model) copySelectionPath() {
	sel := m.focusedPane().SelectedEntries()
	if len(sel) == 0 {
		return
	}
	if err := clipboard.WriteAll(hostPath(m.root, sel[0].Path)); err != nil {
		m.log.Debug("clipboard", "err", err)
		m.toast("clipboard unavailable", true)
		return
	}
	m.toast("path copied", false)
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if s, ok := mouse.ToScroll(msg); ok {
		m.handleScroll(s)
		return
	}
	ev, ok := mouse.ToPointer(msg)
	if !ok {
		return
	}

	switch ev.Kind {
	case gesture.PointerDown:
		m.pointerDown(msg, ev)
	case gesture.PointerMove:
		m.pointerMove(msg, ev)
	case gesture.PointerUp:
		m.pointerUp(msg, ev)
	}
}

func (m *Model) handleScroll(s mouse.Scroll) {
	region := m.hits.Test(s.X, s.Y)
	pane := m.focused
	if region != nil {
		switch d := region.Data.(type) {
		case rowHit:
			pane = d.Pane
		case paneHit:
			pane = d.Pane
		}
	}
	if s.DeltaY != 0 {
		p := m.pane(pane)
		p.SetScrollPosition(p.ScrollPosition() + s.DeltaY)
	}
}

func (m *Model) pointerDown(msg tea.MouseMsg, ev gesture.PointerEvent) {
	if msg.Button != tea.MouseButtonLeft {
		return
	}
	region := m.hits.Test(msg.X, msg.Y)
	if region == nil {
		return
	}

	switch d := region.Data.(type) {
	case splitHit:
		m.splitDrag = true

	case borderHit:
		m.borderDrag = &borderDrag{Pane: d.Pane, Border: d.Border, LastX: msg.X}

	case headerHit:
		m.focused = d.Pane
		m.pane(d.Pane).ClickSortField(d.Field)

	case rowHit:
		m.focused = d.Pane
		m.syncCursorForPane(d.Pane, d.Entry.ID)
		m.startRecognizer(d.Pane, d.Entry)
		m.recognizer.Handle(ev)

	case paneHit:
		m.focused = d.Pane
		m.pane(d.Pane).ClearSelection()
	}
}

func (m *Model) syncCursorForPane(pane int, id string) {
	for i, e := range m.pane(pane).Files() {
		if e.ID == id {
			m.cursor[pane] = i
			return
		}
	}
}

// startRecognizer replaces the active press recognizer with one bound to the
// pressed row.
func (m *Model) startRecognizer(pane int, e entry.Entry) {
	if m.recognizer != nil {
		m.recognizer.Teardown()
	}
	p := m.pane(pane)
	m.recognizer = gesture.New(gesture.Config{
		Item:        e,
		InstanceID:  paneIDs[pane],
		Coordinator: m.coord,
		IsSelected:  func() bool { return p.IsSelected(e.ID) },
		Select:      func() { p.SelectItem(e.ID, false) },
		DraggedSet: func() []drag.DraggedItem {
			sel := p.SelectedEntries()
			items := make([]drag.DraggedItem, 0, len(sel))
			for _, s := range sel {
				items = append(items, drag.DraggedItem{
					Item:             s,
					SourceInstanceID: p.ID(),
					SourcePath:       p.CurrentPath(),
				})
			}
			return items
		},
		Callbacks: gesture.Callbacks{
			OnClick: func(ev gesture.PointerEvent) {
				p.SelectItem(e.ID, ev.Ctrl || ev.Shift)
			},
			OnDoubleClick: func(gesture.PointerEvent) {
				p.Open(e.ID)
			},
		},
	})
}

func (m *Model) pointerMove(msg tea.MouseMsg, ev gesture.PointerEvent) {
	if m.splitDrag {
		m.resizeSplit(msg.X)
		return
	}
	if m.borderDrag != nil {
		m.resizeColumns(msg.X)
		return
	}

	if m.recognizer != nil {
		m.recognizer.Handle(ev)
	}
	if m.coord.Dragging() {
		m.updateDropTarget(msg.X, msg.Y)
		return
	}

	m.hoverRowID = ""
	if m.dragStyles {
		return
	}
	if region := m.hits.Test(msg.X, msg.Y); region != nil {
		if d, ok := region.Data.(rowHit); ok {
			m.hoverRowID = d.Entry.ID
		}
	}
}

func (m *Model) pointerUp(msg tea.MouseMsg, ev gesture.PointerEvent) {
	if m.splitDrag {
		m.splitDrag = false
		store.SetJSON(m.st, splitKey, m.split)
		return
	}
	if m.borderDrag != nil {
		m.borderDrag = nil
		// Ratio persistence runs inside the model on resize.
		return
	}
	if m.recognizer != nil {
		m.recognizer.Handle(ev)
	}
}

// updateDropTarget hit-tests the pointer against panes and folder rows while
// a drag session is live and publishes the result to the coordinator.
func (m *Model) updateDropTarget(x, y int) {
	region := m.hits.Test(x, y)
	if region == nil {
		m.coord.SetDropTarget(nil, false, nil)
		return
	}

	session := m.coord.Session()

	var (
		pane       int
		targetPath string
		targetItem *entry.Entry
	)
	switch d := region.Data.(type) {
	case rowHit:
		pane = d.Pane
		if d.Entry.IsFolder() {
			e := d.Entry
			targetItem = &e
			targetPath = e.Path
		} else {
			targetPath = m.pane(pane).CurrentPath()
		}
	case paneHit:
		pane = d.Pane
		targetPath = m.pane(pane).CurrentPath()
	default:
		m.coord.SetDropTarget(nil, false, nil)
		return
	}

	valid := drag.CanDropOn(session.Items, targetPath, targetItem, paneIDs[pane])
	rect := drag.Rect{
		X: region.Rect.X, Y: region.Rect.Y,
		W: region.Rect.W, H: region.Rect.H,
	}
	m.coord.SetDropTarget(&drag.DropTarget{
		InstanceID: paneIDs[pane],
		TargetPath: targetPath,
		TargetItem: targetItem,
	}, valid, &rect)
}

func (m *Model) resizeSplit(x int) {
	if m.width <= 0 {
		return
	}
	s := float64(x) / float64(m.width)
	if s < minSplit {
		s = minSplit
	}
	if s > maxSplit {
		s = maxSplit
	}
	m.split = s
}

func (m *Model) resizeColumns(x int) {
	d := m.borderDrag
	dx := x - d.LastX
	if dx == 0 {
		return
	}
	d.LastX = x
	p := m.pane(d.Pane)
	p.ResizeColumnBorder(d.Border, dx*cellPx, m.paneWidth(d.Pane)*cellPx)
}

// Close tears down background resources. Safe to call once on exit.
func (m *Model) Close() {
	if m.recognizer != nil {
		m.recognizer.Teardown()
	}
	if m.watcher != nil {
		m.watcher.Stop()
	}
}
