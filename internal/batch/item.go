package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Item is one unit of batch work. Immutable once enumerated; Key is the base
// filename and must be unique within a catalog.
type Item struct {
	Key     string
	Path    string
	Ordinal int
}

// List enumerates the files directly under root whose extension matches one of
// exts (without dots, case-insensitive), sorted by key so a run over the same
// directory snapshot is reproducible. An existing but empty root yields an
// empty slice. A missing or unreadable root is a fatal ErrCatalog.
func List(root string, exts ...string) ([]Item, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("%w: root path is required", ErrCatalog)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrCatalog, root)
	}

	want := map[string]struct{}{}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			want[e] = struct{}{}
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}

	var items []Item
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if len(want) > 0 {
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))
			if _, ok := want[ext]; !ok {
				continue
			}
		}
		items = append(items, Item{Key: entry.Name(), Path: filepath.Join(root, entry.Name())})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	for i := range items {
		items[i].Ordinal = i
	}
	return items, nil
}

// Single bypasses directory enumeration and catalogs exactly one file.
func Single(path string) ([]Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: not a file: %s", ErrCatalog, path)
	}
	return []Item{{Key: filepath.Base(path), Path: path}}, nil
}

// Exclude drops items whose name matches one of the suffixes. The transform
// stage uses it to keep already-produced artifacts out of its own input.
func Exclude(items []Item, suffixes ...string) []Item {
	var kept []Item
	for _, it := range items {
		excluded := false
		for _, s := range suffixes {
			if strings.HasSuffix(it.Key, s) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, it)
		}
	}
	for i := range kept {
		kept[i].Ordinal = i
	}
	return kept
}
