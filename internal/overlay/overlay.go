// Package overlay maintains the ordered queue of pending tree mutations that
// a browser instance layers over the host's read-only snapshot. Ops give the
// UI immediate feedback ahead of backend confirmation; the queue is never
// rolled back automatically — the host clears it on success or rolls it back
// on failure.
package overlay

import (
	"time"

	"github.com/jtallard/dockside/internal/entry"
)

// Op is one pending mutation. Exactly three kinds exist: Remove, Update and
// Insert. Queue order is significant and preserved on read.
type Op interface {
	op()
}

// Remove drops the entries at the given paths from any listing.
type Remove struct {
	Paths []string
}

// Update patches the entry currently at OldPath. If the patch moves the entry
// out of the listed directory it disappears from that listing. An Update whose
// OldPath is not present in the listing is skipped: the overlay carries only
// partial patches and cannot synthesize a full entry, so a move into view must
// be queued as an Insert with complete item data.
type Update struct {
	OldPath string
	Patch   Patch
}

// Insert appends Item under ParentPath unless an entry with the same path is
// already listed.
type Insert struct {
	ParentPath string
	Item       entry.Entry
}

func (Remove) op() {}
func (Update) op() {}
func (Insert) op() {}

// Patch is a partial entry; nil fields are left untouched.
type Patch struct {
	Name       *string
	Path       *string
	Size       *int64
	ModifiedAt *time.Time
	Extension  *string
}

func (p Patch) apply(e entry.Entry) entry.Entry {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Path != nil {
		e.Path = entry.NormalizePath(*p.Path)
	}
	if p.Size != nil {
		e.Size = *p.Size
	}
	if p.ModifiedAt != nil {
		e.ModifiedAt = *p.ModifiedAt
	}
	if p.Extension != nil {
		e.Extension = *p.Extension
	}
	return e
}

// Overlay is the per-instance op queue. It is not safe for concurrent use;
// like the rest of the browser state it belongs to the host's event loop.
type Overlay struct {
	ops []Op
}

// New returns an empty overlay.
func New() *Overlay {
	return &Overlay{}
}

// Push appends an op to the queue.
func (o *Overlay) Push(op Op) {
	o.ops = append(o.ops, op)
}

// Len returns the number of queued ops.
func (o *Overlay) Len() int {
	return len(o.ops)
}

// Ops returns a copy of the queue in order.
func (o *Overlay) Ops() []Op {
	return append([]Op(nil), o.ops...)
}

// Clear empties the queue. Hosts call it once the backend confirmed the
// pending operations.
func (o *Overlay) Clear() {
	o.ops = nil
}

// Rollback removes the last n ops. Hosts call it when the backend rejected
// the operations they queued. n larger than the queue clears it.
func (o *Overlay) Rollback(n int) {
	if n <= 0 {
		return
	}
	if n >= len(o.ops) {
		o.ops = nil
		return
	}
	o.ops = o.ops[:len(o.ops)-n]
}

// Apply runs the queued ops, in recorded order, over the listing of
// parentPath and returns the adjusted listing. items is not mutated.
func (o *Overlay) Apply(items []entry.Entry, parentPath string) []entry.Entry {
	parentPath = entry.NormalizePath(parentPath)
	out := append([]entry.Entry(nil), items...)

	for _, op := range o.ops {
		switch op := op.(type) {
		case Remove:
			removed := make(map[string]bool, len(op.Paths))
			for _, p := range op.Paths {
				removed[entry.NormalizePath(p)] = true
			}
			kept := out[:0]
			for _, e := range out {
				if !removed[entry.NormalizePath(e.Path)] {
					kept = append(kept, e)
				}
			}
			out = kept

		case Update:
			oldPath := entry.NormalizePath(op.OldPath)
			for i, e := range out {
				if entry.NormalizePath(e.Path) != oldPath {
					continue
				}
				patched := op.Patch.apply(e)
				if entry.ParentPath(patched.Path) == parentPath {
					out[i] = patched
				} else {
					// Moved elsewhere: gone from this listing.
					out = append(out[:i], out[i+1:]...)
				}
				break
			}

		case Insert:
			if entry.NormalizePath(op.ParentPath) != parentPath {
				continue
			}
			itemPath := entry.NormalizePath(op.Item.Path)
			exists := false
			for _, e := range out {
				if entry.NormalizePath(e.Path) == itemPath {
					exists = true
					break
				}
			}
			if !exists {
				item := op.Item
				item.Path = itemPath
				out = append(out, item)
			}
		}
	}

	return out
}
