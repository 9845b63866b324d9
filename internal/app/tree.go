package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jtallard/dockside/internal/entry"
)

// maxTreeDepth caps snapshot recursion so a deep or cyclic tree (bind
// mounts) cannot stall startup.
const maxTreeDepth = 12

// loadTree reads the directory rooted at dir into an entry snapshot. Paths
// inside the snapshot are rooted at "/", so the browser never sees absolute
// host paths. Unreadable subdirectories are kept as empty folders.
func loadTree(dir string) ([]entry.Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return readDir(dir, "", 0)
}

func readDir(dir, rel string, depth int) ([]entry.Entry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		if rel == "" {
			return nil, fmt.Errorf("read root: %w", err)
		}
		return nil, nil
	}

	out := make([]entry.Entry, 0, len(dirents))
	for _, d := range dirents {
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		relPath := rel + "/" + name
		e := entry.Entry{
			ID:   uuid.NewString(),
			Name: name,
			Path: relPath,
		}
		if info, err := d.Info(); err == nil {
			e.ModifiedAt = info.ModTime()
			if !d.IsDir() {
				e.Size = info.Size()
			}
		}
		if d.IsDir() {
			e.Kind = entry.KindFolder
			if depth < maxTreeDepth {
				children, err := readDir(filepath.Join(dir, name), relPath, depth+1)
				if err != nil {
					return nil, err
				}
				e.Children = children
			}
		} else {
			e.Kind = entry.KindFile
			e.Extension = entry.ExtensionOf(name)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// hostPath maps a snapshot path back to the real file system location.
func hostPath(root, snapshotPath string) string {
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(snapshotPath, "/")))
}
