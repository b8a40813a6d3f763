package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lexandro/mirrormeta-mcp/ignore"
	"github.com/lexandro/mirrormeta-mcp/language"
)

// DefaultDebounce is the quiet period before a batch of changes is emitted.
const DefaultDebounce = 200 * time.Millisecond

// IgnoreChecker decides which paths under the mirror root are not watched.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// Watcher reports settled changes to mirrored members under one mirror root.
// Only member files and ignore files produce events; sidecar writes are left to the
// IgnoreChecker so reconciling a folder does not feed back into the watcher.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	checker   IgnoreChecker
	rootDir   string
	logger    *slog.Logger
	done      chan struct{}
}

// NewWatcher watches rootDir and every directory below it the checker does not skip.
func NewWatcher(rootDir string, checker IgnoreChecker, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		debouncer: NewDebouncer(debounce),
		checker:   checker,
		rootDir:   rootDir,
		logger:    logger,
		done:      make(chan struct{}),
	}
	if err := w.watchTree(rootDir, false); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// watchTree adds dir and its non-skipped subdirectories to the watch. With announce set,
// members already present are reported as created: they may have landed before the watch.
func (w *Watcher) watchTree(dir string, announce bool) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			if announce && w.relevant(path) {
				w.debouncer.Add(path, OpCreate)
			}
			return nil
		}
		if path != w.rootDir && w.checker.ShouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// relevant reports whether a change to path can affect a mirrored folder.
func (w *Watcher) relevant(path string) bool {
	name := filepath.Base(path)
	if ignore.IsIgnoreFile(name) {
		return true
	}
	return language.IsMemberFileName(name) && !w.checker.ShouldIgnore(path)
}

// Events returns the channel that receives settled batches.
func (w *Watcher) Events() <-chan []DebouncedEvent {
	return w.debouncer.Output()
}

// Start consumes fsnotify events until the watcher is closed. Call it in a goroutine.
func (w *Watcher) Start() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.checker.ShouldIgnoreDir(path) {
				w.watchTree(path, true)
			}
			return
		}
	}

	op, ok := eventOp(event)
	if !ok || !w.relevant(path) {
		return
	}
	w.logger.Debug("mirror change", "path", path, "op", op)
	w.debouncer.Add(path, op)
}

// eventOp maps an fsnotify event to the operation reported downstream. Chmod is dropped.
func eventOp(event fsnotify.Event) (EventOp, bool) {
	switch {
	case event.Has(fsnotify.Create):
		return OpCreate, true
	case event.Has(fsnotify.Write):
		return OpWrite, true
	case event.Has(fsnotify.Remove):
		return OpRemove, true
	case event.Has(fsnotify.Rename):
		return OpRename, true
	}
	return 0, false
}

// Close stops the watcher. Start returns once fsnotify has closed its channels.
func (w *Watcher) Close() error {
	w.debouncer.Stop()
	return w.fsWatcher.Close()
}

// Wait blocks until Start has returned.
func (w *Watcher) Wait() {
	<-w.done
}
