package mirror

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lexandro/mirrormeta-mcp/language"
	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

// Manager runs folder scans and renames against one metadata store.
// Scans and renames in the same directory are serialized.
type Manager struct {
	store   *meta.Store
	logger  *slog.Logger
	workers int

	mu       sync.Mutex
	dirLocks map[string]*sync.Mutex
}

// NewManager creates a Manager. workers bounds the concurrent metadata reads of a scan.
func NewManager(store *meta.Store, logger *slog.Logger, workers int) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Manager{store: store, logger: logger, workers: workers, dirLocks: make(map[string]*sync.Mutex)}
}

// lockDir acquires the lock of one directory and returns its release.
func (m *Manager) lockDir(dirPath string) func() {
	dirPath = filepath.Clean(dirPath)
	m.mu.Lock()
	lock, ok := m.dirLocks[dirPath]
	if !ok {
		lock = &sync.Mutex{}
		m.dirLocks[dirPath] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Store returns the metadata store the manager works on.
func (m *Manager) Store() *meta.Store { return m.store }

// ScanResult holds the outcome of one folder scan.
type ScanResult struct {
	Dir string
	// Members holds the metadata of every mirrored file that has it, in listing order.
	Members []*meta.MemberMetadata
	// Orphans names mirrored files without metadata: local files with no known remote member.
	Orphans []string
	// RemovedSidecars names metadata sidecars deleted because no mirrored file uses them.
	RemovedSidecars []string
}

// ScanFolder loads the metadata of every mirrored file in dirPath, reports orphans, and
// then deletes metadata sidecars that no mirrored file refers to.
// Failing to list dirPath or its metadata directory is fatal; a bad sidecar is not.
func (m *Manager) ScanFolder(ctx context.Context, dirPath string) (*ScanResult, error) {
	defer m.lockDir(dirPath)()
	fsys := m.store.Fs()

	entries, err := afero.ReadDir(fsys, dirPath)
	if err != nil {
		return nil, &meta.DirectoryError{Dir: dirPath, Op: "list", Err: err}
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() || !language.IsMemberFileName(entry.Name()) {
			continue
		}
		candidates = append(candidates, entry.Name())
	}

	// Reads run concurrently; each lands in its own slot so listing order is kept.
	found := make([]*meta.MemberMetadata, len(candidates))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(m.workers)
	for i, name := range candidates {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			found[i] = m.store.Read(filepath.Join(dirPath, name))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := &ScanResult{Dir: dirPath}
	for i, name := range candidates {
		if found[i] != nil {
			result.Members = append(result.Members, found[i])
		} else {
			result.Orphans = append(result.Orphans, name)
		}
	}

	// Cleanup starts only after every read above has finished.
	removed, err := m.removeUnusedSidecars(dirPath, result.Members)
	if err != nil {
		return nil, err
	}
	result.RemovedSidecars = removed

	m.logger.Debug("scanned folder",
		"dir", dirPath,
		"members", len(result.Members),
		"orphans", len(result.Orphans),
		"removed", len(result.RemovedSidecars),
	)
	return result, nil
}

// removeUnusedSidecars deletes every file in the metadata directory that is not the
// sidecar of one of members.
func (m *Manager) removeUnusedSidecars(dirPath string, members []*meta.MemberMetadata) ([]string, error) {
	fsys := m.store.Fs()
	sidecarDir := m.store.Layout().MetadataDirPath(dirPath)

	entries, err := afero.ReadDir(fsys, sidecarDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &meta.DirectoryError{Dir: sidecarDir, Op: "list", Err: err}
	}

	present := make(nameSet, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			present.add(entry.Name())
		}
	}
	referenced := make(nameSet, len(members))
	for _, member := range members {
		referenced.add(member.MetadataFileName)
	}

	var removed []string
	for _, name := range present.difference(referenced) {
		sidecarPath := filepath.Join(sidecarDir, name)
		if err := fsys.Remove(sidecarPath); err != nil {
			m.logger.Warn("failed to remove unused sidecar", "path", sidecarPath, "error", err)
			continue
		}
		m.logger.Info("removed unused sidecar", "path", sidecarPath)
		removed = append(removed, name)
	}
	return removed, nil
}

type nameSet map[string]struct{}

func (s nameSet) add(name string) { s[name] = struct{}{} }

// difference returns the names in s that are not in other, sorted.
func (s nameSet) difference(other nameSet) []string {
	var names []string
	for name := range s {
		if _, ok := other[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
