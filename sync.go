package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lexandro/mirrormeta-mcp/ignore"
	"github.com/lexandro/mirrormeta-mcp/index"
	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/lexandro/mirrormeta-mcp/mirror"
	"github.com/lexandro/mirrormeta-mcp/tools"
	"github.com/lexandro/mirrormeta-mcp/watcher"
)

// reconciler keeps the sidecars of every mirror folder under the roots consistent with the
// mirrored files, and the symbol catalog consistent with the sidecars.
type reconciler struct {
	manager  *mirror.Manager
	catalog  *index.Catalog
	roots    []string
	matchers map[string]*ignore.Matcher // key: root
	logger   *slog.Logger
}

// reconcileAll rediscovers the mirror folders under every root and reconciles each one.
// Folders that disappeared are dropped from the catalog.
func (r *reconciler) reconcileAll(ctx context.Context) (tools.ReconcileSummary, error) {
	start := time.Now()
	var summary tools.ReconcileSummary

	seen := make(map[string]struct{})
	layout := r.manager.Store().Layout()
	for _, root := range r.roots {
		for _, dir := range discoverMirrorFolders(r.manager.Store().Fs(), root, layout, r.matchers[root]) {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			seen[dir] = struct{}{}
			result, err := r.reconcileDir(ctx, dir)
			if err != nil {
				summary.Failed++
				continue
			}
			summary.Folders++
			summary.Orphans += len(result.Orphans)
			summary.RemovedSidecars += len(result.RemovedSidecars)
		}
	}

	for _, dir := range r.catalog.Dirs() {
		if _, ok := seen[dir]; !ok {
			if err := r.catalog.RemoveFolder(dir); err != nil {
				r.logger.Warn("reconcile: dropping vanished folder failed", "dir", dir, "error", err)
				continue
			}
			r.logger.Info("reconcile: dropped vanished folder", "dir", dir)
		}
	}

	summary.Elapsed = time.Since(start).Round(time.Millisecond).String()
	return summary, nil
}

// reconcileDir scans one folder and refreshes its catalog entry.
func (r *reconciler) reconcileDir(ctx context.Context, dir string) (*mirror.ScanResult, error) {
	result, err := r.manager.ScanFolder(ctx, dir)
	if err != nil {
		var dirErr *meta.DirectoryError
		if errors.As(err, &dirErr) && dirErr.Dir == dir {
			if removeErr := r.catalog.RemoveFolder(dir); removeErr != nil {
				r.logger.Warn("dropping folder from catalog failed", "dir", dir, "error", removeErr)
			}
		}
		r.logger.Warn("reconcile failed", "dir", dir, "error", err)
		return nil, err
	}
	if len(result.Orphans) > 0 || len(result.RemovedSidecars) > 0 {
		r.logger.Info("reconciled folder",
			"dir", dir,
			"members", len(result.Members),
			"orphans", result.Orphans,
			"removed", result.RemovedSidecars,
		)
	} else {
		r.logger.Debug("reconciled folder", "dir", dir, "members", len(result.Members))
	}

	if _, err := r.catalog.Refresh(dir); err != nil {
		r.logger.Warn("symbol refresh failed", "dir", dir, "error", err)
	}
	return result, nil
}

// handleWatcherEvents reconciles each mirror folder named by a settled batch of changes.
// It runs until the watcher's event channel is drained and ctx is done.
func (r *reconciler) handleWatcherEvents(ctx context.Context, fileWatcher *watcher.Watcher, matcher *ignore.Matcher) {
	layout := r.manager.Store().Layout()
	fsys := r.manager.Store().Fs()
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fileWatcher.Events():
			for _, event := range events {
				baseName := filepath.Base(event.Path)
				if ignore.IsIgnoreFile(baseName) {
					matcher.Reload()
					r.logger.Info("reloaded ignore rules", "trigger", baseName)
				}
			}
			for _, dir := range watcher.ChangedDirs(events) {
				if !isMirrorFolder(fsys, dir, layout) && r.catalog.Symbols(dir) == nil {
					continue
				}
				r.reconcileDir(ctx, dir)
			}
		}
	}
}

// runPeriodicReconcile reconciles every folder at the given interval until ctx is done.
func runPeriodicReconcile(ctx context.Context, interval time.Duration, r *reconciler, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("periodic reconcile started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("periodic reconcile stopped")
			return
		case <-ticker.C:
			summary, err := r.reconcileAll(ctx)
			if err != nil {
				logger.Debug("periodic reconcile interrupted", "error", err)
				continue
			}
			if summary.Orphans+summary.RemovedSidecars+summary.Failed > 0 {
				logger.Info("periodic reconcile complete",
					"folders", summary.Folders,
					"orphans", summary.Orphans,
					"removed", summary.RemovedSidecars,
					"failed", summary.Failed,
					"duration", summary.Elapsed,
				)
			} else {
				logger.Debug("periodic reconcile complete, mirrors in sync", "duration", summary.Elapsed)
			}
		}
	}
}
