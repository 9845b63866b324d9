package browser

import (
	"testing"
	"time"

	"github.com/jtallard/dockside/internal/entry"
	"github.com/jtallard/dockside/internal/overlay"
	"github.com/jtallard/dockside/internal/store"
)

func testTree() []entry.Entry {
	return []entry.Entry{
		{
			ID: "docs", Name: "docs", Kind: entry.KindFolder, Path: "/docs",
			Children: []entry.Entry{
				{ID: "a", Name: "alpha.txt", Kind: entry.KindFile, Path: "/docs/alpha.txt", Size: 10},
				{ID: "b", Name: "beta.md", Kind: entry.KindFile, Path: "/docs/beta.md", Size: 30},
				{ID: "sub", Name: "sub", Kind: entry.KindFolder, Path: "/docs/sub"},
			},
		},
		{ID: "n", Name: "notes.md", Kind: entry.KindFile, Path: "/notes.md"},
	}
}

func newModel(cb Callbacks) *Model {
	return New(Config{ID: "left", Tree: testTree(), Callbacks: cb})
}

func drain(m *Model) {
	for _, f := range m.TakePending() {
		f()
	}
}

func TestSetCurrentPath_Normalizes(t *testing.T) {
	var navigated []string
	m := newModel(Callbacks{OnNavigate: func(p string) { navigated = append(navigated, p) }})

	m.SetCurrentPath("docs/")
	if m.CurrentPath() != "/docs" {
		t.Errorf("CurrentPath = %q", m.CurrentPath())
	}
	if len(navigated) != 1 || navigated[0] != "/docs" {
		t.Errorf("navigated = %v", navigated)
	}
}

func TestSetCurrentPath_SamePathIsNoOp(t *testing.T) {
	var navigated int
	m := newModel(Callbacks{OnNavigate: func(string) { navigated++ }})

	m.SetCurrentPath("/docs")
	drain(m)
	m.SelectItem("a", false)
	m.SetFilterQuery("al")
	m.SetFilterActive(true)
	drain(m)

	// Same normalized path, different spelling: everything must survive.
	m.SetCurrentPath(" /docs/ ")

	if navigated != 1 {
		t.Errorf("OnNavigate fired %d times, want 1", navigated)
	}
	if !m.IsSelected("a") {
		t.Error("selection should be untouched")
	}
	if m.FilterQuery() != "al" || !m.FilterActive() {
		t.Errorf("filter state changed: %q, %v", m.FilterQuery(), m.FilterActive())
	}
	if m.HasPending() {
		t.Error("no notification should be scheduled for a no-op navigation")
	}
}

func TestSetCurrentPath_ClearsSelectionAndFilter(t *testing.T) {
	var selected [][]entry.Entry
	m := newModel(Callbacks{OnSelect: func(es []entry.Entry) { selected = append(selected, es) }})

	m.SetCurrentPath("/docs")
	m.SelectItem("a", false)
	m.SetFilterQuery("alp")
	m.SetFilterActive(true)
	drain(m)
	selected = nil

	m.SetCurrentPath("/")

	if m.SelectionCount() != 0 {
		t.Error("selection should be cleared")
	}
	if m.FilterQuery() != "" || m.FilterActive() {
		t.Error("filter should be cleared")
	}

	// The empty-selection notification is deferred, not synchronous.
	if len(selected) != 0 {
		t.Fatal("OnSelect delivered synchronously")
	}
	drain(m)
	if len(selected) != 1 || len(selected[0]) != 0 {
		t.Errorf("deferred OnSelect = %v", selected)
	}
}

func TestSelectItem_BareClickNeverTogglesOff(t *testing.T) {
	m := newModel(Callbacks{})
	m.SetCurrentPath("/docs")

	m.SelectItem("a", false)
	m.SelectItem("a", false)
	if !m.IsSelected("a") || m.SelectionCount() != 1 {
		t.Errorf("selection after two bare clicks = %d selected, a=%v",
			m.SelectionCount(), m.IsSelected("a"))
	}
}

func TestSelectItem_MultiToggles(t *testing.T) {
	m := newModel(Callbacks{})
	m.SetCurrentPath("/docs")

	m.SelectItem("a", false)
	m.SelectItem("b", true)
	if m.SelectionCount() != 2 {
		t.Fatalf("count = %d, want 2", m.SelectionCount())
	}
	m.SelectItem("b", true)
	if m.SelectionCount() != 1 || !m.IsSelected("a") {
		t.Errorf("toggle should return to pre-call state")
	}
}

func TestClearSelection(t *testing.T) {
	notified := 0
	m := newModel(Callbacks{OnSelect: func([]entry.Entry) { notified++ }})
	m.SetCurrentPath("/docs")
	m.SelectItem("a", false)
	drain(m)
	notified = 0

	m.ClearSelection()
	drain(m)
	if m.SelectionCount() != 0 {
		t.Fatalf("count = %d, want 0", m.SelectionCount())
	}
	if notified != 1 {
		t.Errorf("notifications = %d, want 1", notified)
	}

	// Clearing an empty selection stays silent.
	m.ClearSelection()
	drain(m)
	if notified != 1 {
		t.Errorf("no-op clear notified (%d)", notified)
	}
}

func TestSelectItem_DeferredSnapshotIsImmutable(t *testing.T) {
	var got [][]entry.Entry
	m := newModel(Callbacks{OnSelect: func(es []entry.Entry) { got = append(got, es) }})
	m.SetCurrentPath("/docs")
	drain(m)
	got = nil

	m.SelectItem("a", false)
	// Mutate after scheduling: the queued notification must still deliver
	// the snapshot taken at call time.
	m.SelectItem("b", true)
	drain(m)

	if len(got) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(got))
	}
	if len(got[0]) != 1 || got[0][0].ID != "a" {
		t.Errorf("first snapshot = %v", got[0])
	}
	if len(got[1]) != 2 {
		t.Errorf("second snapshot = %v", got[1])
	}
}

func TestFiles_FolderFirstAndFilter(t *testing.T) {
	m := newModel(Callbacks{})
	m.SetCurrentPath("/docs")

	files := m.Files()
	if len(files) != 3 {
		t.Fatalf("files = %d", len(files))
	}
	if files[0].ID != "sub" {
		t.Errorf("folder should sort first, got %q", files[0].Name)
	}

	m.SetFilterQuery("bt")
	files = m.Files()
	if len(files) != 1 || files[0].ID != "b" {
		t.Errorf("filtered files = %v", files)
	}
}

func TestFiles_OverlayInsertThenRemoveAbsent(t *testing.T) {
	m := newModel(Callbacks{})
	item := entry.Entry{ID: "x", Name: "ghost.txt", Kind: entry.KindFile, Path: "/ghost.txt"}
	m.OptimisticInsert("/", item)
	m.OptimisticRemove([]string{"/ghost.txt"})

	for _, e := range m.Files() {
		if e.ID == "x" {
			t.Fatal("inserted-then-removed entry visible")
		}
	}
}

func TestFilter_PrunesSelection(t *testing.T) {
	m := newModel(Callbacks{})
	m.SetCurrentPath("/docs")
	m.SelectItem("a", false)
	m.SelectItem("b", true)

	m.SetFilterQuery("beta")
	if m.IsSelected("a") {
		t.Error("filtered-out entry should leave the selection")
	}
	if !m.IsSelected("b") {
		t.Error("still-visible entry should stay selected")
	}
}

func TestSetTree_KeepsVisibleSelection(t *testing.T) {
	m := newModel(Callbacks{})
	m.SetCurrentPath("/docs")
	m.SelectItem("a", false)
	m.SelectItem("b", true)

	// New snapshot without beta.md.
	tree := testTree()
	tree[0].Children = tree[0].Children[:1]
	m.SetTree(tree)

	if !m.IsSelected("a") || m.IsSelected("b") {
		t.Errorf("selection after SetTree: a=%v b=%v", m.IsSelected("a"), m.IsSelected("b"))
	}
}

func TestClickSortField(t *testing.T) {
	m := newModel(Callbacks{})

	m.ClickSortField(SortBySize)
	if m.SortConfig() != (SortConfig{Field: SortBySize, Direction: SortAsc}) {
		t.Errorf("new field should reset ascending, got %+v", m.SortConfig())
	}
	m.ClickSortField(SortBySize)
	if m.SortConfig().Direction != SortDesc {
		t.Error("same field should toggle to descending")
	}
	m.ClickSortField(SortByName)
	if m.SortConfig() != (SortConfig{Field: SortByName, Direction: SortAsc}) {
		t.Errorf("switching fields should reset ascending, got %+v", m.SortConfig())
	}
}

func TestOpen_FolderNavigatesFileReports(t *testing.T) {
	var opened []string
	var navigated []string
	m := newModel(Callbacks{
		OnOpen:     func(e entry.Entry) { opened = append(opened, e.Path) },
		OnNavigate: func(p string) { navigated = append(navigated, p) },
	})

	m.Open("docs")
	if len(navigated) != 1 || navigated[0] != "/docs" {
		t.Errorf("navigated = %v", navigated)
	}
	m.Open("a")
	if len(opened) != 1 || opened[0] != "/docs/alpha.txt" {
		t.Errorf("opened = %v", opened)
	}
}

func TestOptimisticUpdate_RenameVisible(t *testing.T) {
	m := newModel(Callbacks{})
	m.SetCurrentPath("/docs")

	name := "omega.txt"
	path := "/docs/omega.txt"
	mod := time.Now()
	m.OptimisticUpdate("/docs/alpha.txt", overlay.Patch{Name: &name, Path: &path, ModifiedAt: &mod})

	found := false
	for _, e := range m.Files() {
		if e.Path == "/docs/omega.txt" && e.ID == "a" {
			found = true
		}
		if e.Path == "/docs/alpha.txt" {
			t.Error("old path still visible after rename")
		}
	}
	if !found {
		t.Error("renamed entry missing")
	}
}

func TestRollbackOptimistic(t *testing.T) {
	m := newModel(Callbacks{})
	m.SetCurrentPath("/docs")
	m.OptimisticRemove([]string{"/docs/alpha.txt"})
	m.OptimisticRemove([]string{"/docs/beta.md"})

	m.RollbackOptimistic(1)
	files := m.Files()
	hasBeta := false
	for _, e := range files {
		if e.ID == "b" {
			hasBeta = true
		}
		if e.ID == "a" {
			t.Error("first remove should still apply")
		}
	}
	if !hasBeta {
		t.Error("rolled-back remove still applied")
	}
}

func TestLayoutPersistence(t *testing.T) {
	kv := store.NewMemory()
	m := New(Config{ID: "x", Tree: testTree(), Store: kv, LayoutKey: "pane.columns"})

	m.SetColumnRatios(ColumnRatios{Name: 0.6, Modified: 0.2, Size: 0.2})

	m2 := New(Config{ID: "y", Tree: testTree(), Store: kv, LayoutKey: "pane.columns"})
	r := m2.Columns().Ratios()
	if r.Name < 0.59 || r.Name > 0.61 {
		t.Errorf("restored ratios = %+v", r)
	}
}
