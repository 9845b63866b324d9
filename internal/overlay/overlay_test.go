package overlay

import (
	"testing"

	"github.com/jtallard/dockside/internal/entry"
)

func listing() []entry.Entry {
	return []entry.Entry{
		{ID: "1", Name: "alpha.txt", Kind: entry.KindFile, Path: "/docs/alpha.txt"},
		{ID: "2", Name: "beta.txt", Kind: entry.KindFile, Path: "/docs/beta.txt"},
		{ID: "3", Name: "sub", Kind: entry.KindFolder, Path: "/docs/sub"},
	}
}

func paths(items []entry.Entry) []string {
	out := make([]string, len(items))
	for i, e := range items {
		out[i] = e.Path
	}
	return out
}

func contains(items []entry.Entry, path string) bool {
	for _, e := range items {
		if e.Path == path {
			return true
		}
	}
	return false
}

func TestApply_Remove(t *testing.T) {
	o := New()
	o.Push(Remove{Paths: []string{"/docs/beta.txt"}})

	out := o.Apply(listing(), "/docs")
	if len(out) != 2 {
		t.Fatalf("got %v", paths(out))
	}
	if contains(out, "/docs/beta.txt") {
		t.Error("beta.txt should be removed")
	}
}

func TestApply_InsertThenRemove(t *testing.T) {
	o := New()
	item := entry.Entry{ID: "9", Name: "new.txt", Kind: entry.KindFile, Path: "/docs/new.txt"}
	o.Push(Insert{ParentPath: "/docs", Item: item})
	o.Push(Remove{Paths: []string{"/docs/new.txt"}})

	out := o.Apply(listing(), "/docs")
	if contains(out, "/docs/new.txt") {
		t.Errorf("inserted-then-removed item still present: %v", paths(out))
	}
}

func TestApply_InsertSkipsDuplicatePath(t *testing.T) {
	o := New()
	o.Push(Insert{ParentPath: "/docs", Item: entry.Entry{ID: "9", Name: "alpha.txt", Path: "/docs/alpha.txt"}})

	out := o.Apply(listing(), "/docs")
	if len(out) != 3 {
		t.Errorf("duplicate insert should be skipped, got %v", paths(out))
	}
}

func TestApply_InsertOtherParentIgnored(t *testing.T) {
	o := New()
	o.Push(Insert{ParentPath: "/other", Item: entry.Entry{ID: "9", Name: "x.txt", Path: "/other/x.txt"}})

	out := o.Apply(listing(), "/docs")
	if len(out) != 3 {
		t.Errorf("insert for another parent leaked in: %v", paths(out))
	}
}

func TestApply_UpdateInPlace(t *testing.T) {
	o := New()
	name := "renamed.txt"
	path := "/docs/renamed.txt"
	o.Push(Update{OldPath: "/docs/alpha.txt", Patch: Patch{Name: &name, Path: &path}})

	out := o.Apply(listing(), "/docs")
	if len(out) != 3 {
		t.Fatalf("got %v", paths(out))
	}
	if !contains(out, "/docs/renamed.txt") || contains(out, "/docs/alpha.txt") {
		t.Errorf("rename not applied: %v", paths(out))
	}
	// Identity is preserved through a rename.
	for _, e := range out {
		if e.Path == "/docs/renamed.txt" && e.ID != "1" {
			t.Errorf("rename changed ID to %q", e.ID)
		}
	}
}

func TestApply_UpdateMovesOutOfView(t *testing.T) {
	o := New()
	path := "/elsewhere/alpha.txt"
	o.Push(Update{OldPath: "/docs/alpha.txt", Patch: Patch{Path: &path}})

	out := o.Apply(listing(), "/docs")
	if contains(out, "/docs/alpha.txt") || contains(out, "/elsewhere/alpha.txt") {
		t.Errorf("moved-away entry still listed: %v", paths(out))
	}
	if len(out) != 2 {
		t.Errorf("got %d entries, want 2", len(out))
	}
}

func TestApply_UpdateMissingTargetSkipped(t *testing.T) {
	o := New()
	name := "ghost"
	o.Push(Update{OldPath: "/docs/ghost.txt", Patch: Patch{Name: &name}})

	out := o.Apply(listing(), "/docs")
	if len(out) != 3 {
		t.Errorf("update of a missing entry should be a no-op, got %v", paths(out))
	}
}

func TestApply_OrderPreserved(t *testing.T) {
	o := New()
	// Rename alpha, then remove it under its new path. Order matters: run in
	// the other order the remove would miss.
	path := "/docs/renamed.txt"
	o.Push(Update{OldPath: "/docs/alpha.txt", Patch: Patch{Path: &path}})
	o.Push(Remove{Paths: []string{"/docs/renamed.txt"}})

	out := o.Apply(listing(), "/docs")
	if contains(out, "/docs/alpha.txt") || contains(out, "/docs/renamed.txt") {
		t.Errorf("ordered ops not honored: %v", paths(out))
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	o := New()
	o.Push(Remove{Paths: []string{"/docs/alpha.txt"}})

	in := listing()
	o.Apply(in, "/docs")
	if len(in) != 3 || in[0].Path != "/docs/alpha.txt" {
		t.Errorf("input mutated: %v", paths(in))
	}
}

func TestClearAndRollback(t *testing.T) {
	o := New()
	o.Push(Remove{Paths: []string{"/docs/alpha.txt"}})
	o.Push(Remove{Paths: []string{"/docs/beta.txt"}})
	o.Push(Remove{Paths: []string{"/docs/sub"}})

	o.Rollback(2)
	if o.Len() != 1 {
		t.Fatalf("Len after Rollback(2) = %d, want 1", o.Len())
	}
	out := o.Apply(listing(), "/docs")
	if contains(out, "/docs/alpha.txt") || !contains(out, "/docs/beta.txt") {
		t.Errorf("rollback kept wrong ops: %v", paths(out))
	}

	o.Rollback(10)
	if o.Len() != 0 {
		t.Errorf("Rollback past queue length should clear, Len = %d", o.Len())
	}

	o.Push(Remove{Paths: []string{"/docs/alpha.txt"}})
	o.Clear()
	if o.Len() != 0 {
		t.Errorf("Clear left %d ops", o.Len())
	}
}
