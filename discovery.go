package main

import (
	"os"
	"path/filepath"

	"github.com/lexandro/mirrormeta-mcp/ignore"
	"github.com/lexandro/mirrormeta-mcp/sidecar"
	"github.com/spf13/afero"
)

// discoverMirrorFolders walks rootDir and returns every directory that holds a metadata
// sidecar directory, in walk order. Ignored directories and sidecar directories are skipped.
func discoverMirrorFolders(fsys afero.Fs, rootDir string, layout sidecar.Layout, matcher *ignore.Matcher) []string {
	var folders []string
	afero.Walk(fsys, rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip entries that can't be read
		}
		if !info.IsDir() {
			return nil
		}
		if path != rootDir && (layout.IsSidecarDir(info.Name()) || matcher.ShouldIgnoreDir(path)) {
			return filepath.SkipDir
		}
		if isMirrorFolder(fsys, path, layout) {
			folders = append(folders, path)
		}
		return nil
	})
	return folders
}

// isMirrorFolder reports whether dir has a metadata sidecar directory.
func isMirrorFolder(fsys afero.Fs, dir string, layout sidecar.Layout) bool {
	ok, err := afero.DirExists(fsys, layout.MetadataDirPath(dir))
	return err == nil && ok
}
