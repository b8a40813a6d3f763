package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lexandro/mirrormeta-mcp/meta"
)

// Catalog holds the symbol index of every known mirror folder and a combined
// SymbolSearch over all of them.
// It uses a map for O(1) folder lookups and a sorted slice for stable iteration.
type Catalog struct {
	mu         sync.RWMutex
	store      *meta.Store
	folders    map[string]*SymbolIndex // key: mirrored directory path
	sortedDirs []string
	search     *SymbolSearch
}

// NewCatalog creates an empty catalog reading metadata through store.
func NewCatalog(store *meta.Store) (*Catalog, error) {
	search, err := NewSymbolSearch()
	if err != nil {
		return nil, err
	}
	return &Catalog{
		store:      store,
		folders:    make(map[string]*SymbolIndex),
		sortedDirs: make([]string, 0),
		search:     search,
	}, nil
}

// Refresh rebuilds the symbol index of dir from its current metadata and replaces
// the catalog entry.
func (c *Catalog) Refresh(dir string) (*SymbolIndex, error) {
	symbols, err := GatherDefinedSymbols(c.store, dir)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.folders[dir]; !exists {
		c.sortedDirs = append(c.sortedDirs, dir)
		sort.Strings(c.sortedDirs)
	}
	c.folders[dir] = symbols

	if err := c.rebuildSearchLocked(); err != nil {
		return symbols, err
	}
	return symbols, nil
}

// RemoveFolder drops dir from the catalog.
func (c *Catalog) RemoveFolder(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.folders[dir]; !exists {
		return nil
	}
	delete(c.folders, dir)

	idx := sort.SearchStrings(c.sortedDirs, dir)
	if idx < len(c.sortedDirs) && c.sortedDirs[idx] == dir {
		c.sortedDirs = append(c.sortedDirs[:idx], c.sortedDirs[idx+1:]...)
	}
	return c.rebuildSearchLocked()
}

// rebuildSearchLocked replaces the bleve index with one covering every folder.
// Caller must hold the write lock.
func (c *Catalog) rebuildSearchLocked() error {
	search, err := NewSymbolSearch()
	if err != nil {
		return err
	}
	for _, dir := range c.sortedDirs {
		if err := search.Add(c.folders[dir]); err != nil {
			search.Close()
			return fmt.Errorf("rebuilding symbol search: %w", err)
		}
	}
	old := c.search
	c.search = search
	return old.Close()
}

// Symbols returns the symbol index of dir, or nil if the folder is unknown.
func (c *Catalog) Symbols(dir string) *SymbolIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.folders[dir]
}

// Dirs returns the known folders in sorted order.
func (c *Catalog) Dirs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dirs := make([]string, len(c.sortedDirs))
	copy(dirs, c.sortedDirs)
	return dirs
}

// MatchDirs returns the known folders matching a doublestar pattern.
func (c *Catalog) MatchDirs(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid folder pattern %q", pattern)
	}
	var matched []string
	for _, dir := range c.Dirs() {
		if ok, _ := doublestar.PathMatch(pattern, dir); ok {
			matched = append(matched, dir)
		}
	}
	return matched, nil
}

// FolderCount returns the number of cataloged folders.
func (c *Catalog) FolderCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.folders)
}

// SymbolCount returns the number of symbols across all folders.
func (c *Catalog) SymbolCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, symbols := range c.folders {
		total += symbols.Len()
	}
	return total
}

// Find looks the symbol up folder by folder in sorted order and returns the first hit.
func (c *Catalog) Find(symbolName string, kind meta.SymbolKind) (string, *meta.MemberMetadata) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.findLocked(c.sortedDirs, symbolName, kind)
}

// FindIn is Find limited to dirs, searched in the given order. Unknown folders are skipped.
func (c *Catalog) FindIn(dirs []string, symbolName string, kind meta.SymbolKind) (string, *meta.MemberMetadata) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.findLocked(dirs, symbolName, kind)
}

func (c *Catalog) findLocked(dirs []string, symbolName string, kind meta.SymbolKind) (string, *meta.MemberMetadata) {
	for _, dir := range dirs {
		symbols, ok := c.folders[dir]
		if !ok {
			continue
		}
		if path, record := symbols.Find(symbolName, kind); path != "" {
			return path, record
		}
	}
	return "", nil
}

// Suggest collects near names from dirs, or from every folder when dirs is empty, best first.
func (c *Catalog) Suggest(symbolName string, kind meta.SymbolKind, limit int, dirs ...string) []SymbolEntry {
	c.mu.RLock()
	if len(dirs) == 0 {
		dirs = c.sortedDirs
	}
	combined := &SymbolIndex{store: c.store}
	for _, dir := range dirs {
		if symbols, ok := c.folders[dir]; ok {
			combined.entries = append(combined.entries, symbols.entries...)
		}
	}
	c.mu.RUnlock()
	return combined.Suggest(symbolName, kind, limit)
}

// Search runs a symbol search across every folder.
func (c *Catalog) Search(options SearchOptions) ([]SymbolEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.search.Search(options)
}

// Close releases the search index.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search.Close()
}
