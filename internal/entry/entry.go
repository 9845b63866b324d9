// Package entry defines the file tree node consumed by the browser core and
// the path helpers shared across packages. The tree is an immutable snapshot
// supplied by the host; folders own their children by value and carry no back
// references, so the overlay and drag layers never have to worry about cycles.
package entry

import (
	"strings"
	"time"
)

// Kind distinguishes files from folders.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// Entry is one node in the browsed tree. Path is the stable natural key; ID is
// a host-assigned opaque identifier used for selection tracking.
type Entry struct {
	ID         string
	Name       string
	Kind       Kind
	Path       string
	Size       int64
	ModifiedAt time.Time
	Extension  string
	Children   []Entry
}

// IsFolder reports whether the entry can contain children.
func (e *Entry) IsFolder() bool {
	return e.Kind == KindFolder
}

// NormalizePath canonicalizes a browse path: surrounding whitespace is
// trimmed, the empty string becomes "/", a leading slash is guaranteed and a
// trailing slash is dropped (except for the root itself). Malformed input is
// absorbed rather than rejected.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}

// ParentPath returns the normalized parent of p; the parent of "/" is "/".
func ParentPath(p string) string {
	p = NormalizePath(p)
	if p == "/" {
		return "/"
	}
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}

// Join appends a child name to a normalized parent path.
func Join(parent, name string) string {
	parent = NormalizePath(parent)
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// IsDescendant reports whether path lies strictly below ancestor. The check is
// on path-segment boundaries: "/ab" is not a descendant of "/a".
func IsDescendant(ancestor, path string) bool {
	ancestor = NormalizePath(ancestor)
	path = NormalizePath(path)
	if path == ancestor {
		return false
	}
	if ancestor == "/" {
		return true
	}
	return strings.HasPrefix(path, ancestor+"/")
}

// ExtensionOf returns the lowercase extension of a file name without the dot,
// or "" when the name has none.
func ExtensionOf(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// Index is a flat path → node lookup over one snapshot tree, built once per
// snapshot so overlay reconciliation and drop-target checks stay O(1).
type Index struct {
	root  []Entry
	nodes map[string]*Entry
}

// NewIndex builds an index over the given root entries. The entries are
// assumed to live at least as long as the index.
func NewIndex(root []Entry) *Index {
	idx := &Index{
		root:  root,
		nodes: make(map[string]*Entry),
	}
	idx.walk(root)
	return idx
}

func (idx *Index) walk(entries []Entry) {
	for i := range entries {
		e := &entries[i]
		idx.nodes[NormalizePath(e.Path)] = e
		if len(e.Children) > 0 {
			idx.walk(e.Children)
		}
	}
}

// Lookup returns the node at the normalized path, or nil.
func (idx *Index) Lookup(path string) *Entry {
	return idx.nodes[NormalizePath(path)]
}

// ChildrenAt returns a copy of the children listed under path. The root path
// returns the top-level entries. A missing or non-folder path yields nil.
func (idx *Index) ChildrenAt(path string) []Entry {
	path = NormalizePath(path)
	if path == "/" {
		return append([]Entry(nil), idx.root...)
	}
	node := idx.nodes[path]
	if node == nil || !node.IsFolder() {
		return nil
	}
	return append([]Entry(nil), node.Children...)
}

// Root returns the snapshot's top-level entries.
func (idx *Index) Root() []Entry {
	return idx.root
}
