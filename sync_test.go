package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/lexandro/mirrormeta-mcp/ignore"
	"github.com/lexandro/mirrormeta-mcp/index"
	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/lexandro/mirrormeta-mcp/mirror"
	"github.com/lexandro/mirrormeta-mcp/sidecar"
	"github.com/spf13/afero"
)

const testRoot = "/mirror"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReconciler(t *testing.T) *reconciler {
	t.Helper()
	logger := testLogger()
	store := meta.NewStore(meta.StoreOptions{Fs: afero.NewMemMapFs(), Layout: sidecar.DefaultLayout(), Logger: logger})
	catalog, err := index.NewCatalog(store)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { catalog.Close() })

	return &reconciler{
		manager: mirror.NewManager(store, logger, 2),
		catalog: catalog,
		roots:   []string{testRoot},
		matchers: map[string]*ignore.Matcher{
			testRoot: ignore.NewMatcher(ignore.MatcherOptions{RootDir: testRoot, Layout: sidecar.DefaultLayout()}),
		},
		logger: logger,
	}
}

// mirrorFile writes dir/fileName and its metadata sidecar with the given symbols.
func mirrorFile(t *testing.T, r *reconciler, dir string, fileName string, srcType string, symbols ...meta.DefinedSymbol) {
	t.Helper()
	store := r.manager.Store()
	path := filepath.Join(dir, fileName)
	if err := afero.WriteFile(store.Fs(), path, []byte("**free\n"), 0644); err != nil {
		t.Fatal(err)
	}
	listing := meta.ListingRecord{MemberName: fileName, SourceType: srcType}
	if _, err := store.Write(dir, fileName, meta.Source{Listing: &listing}); err != nil {
		t.Fatal(err)
	}
	if len(symbols) > 0 {
		if _, err := store.Apply(path, meta.SetDefinedSymbols{Symbols: symbols}); err != nil {
			t.Fatal(err)
		}
	}
}

func Test_discoverMirrorFolders(t *testing.T) {
	r := newTestReconciler(t)
	fsys := r.manager.Store().Fs()
	mirrorFile(t, r, "/mirror/S067454R/STEVESRC", "CIN0103R.sqlrpgle", "SQLRPGLE")
	mirrorFile(t, r, "/mirror/S067454R/QDDSSRC", "SCREEN.dspf", "DSPF")
	mirrorFile(t, r, "/mirror/.git/STRAY", "X.rpgle", "RPGLE")
	if err := afero.WriteFile(fsys, "/mirror/notes/readme.txt", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	folders := discoverMirrorFolders(fsys, testRoot, sidecar.DefaultLayout(), r.matchers[testRoot])

	want := []string{"/mirror/S067454R/QDDSSRC", "/mirror/S067454R/STEVESRC"}
	if len(folders) != len(want) {
		t.Fatalf("expected %v, got %v", want, folders)
	}
	for i := range want {
		if folders[i] != want[i] {
			t.Errorf("folder[%d] = %s, want %s", i, folders[i], want[i])
		}
	}
}

func Test_reconcileAll_ScansAndCatalogs(t *testing.T) {
	r := newTestReconciler(t)
	dir := "/mirror/S067454R/STEVESRC"
	mirrorFile(t, r, dir, "CIN0103R.sqlrpgle", "SQLRPGLE",
		meta.DefinedSymbol{SymbolName: "AddLabelHeader", SymbolType: meta.KindProcedure})
	mirrorFile(t, r, dir, "GONE.rpgle", "RPGLE")
	if err := r.manager.Store().Fs().Remove(filepath.Join(dir, "GONE.rpgle")); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(r.manager.Store().Fs(), filepath.Join(dir, "NEW.rpgle"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	summary, err := r.reconcileAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Folders != 1 || summary.Orphans != 1 || summary.RemovedSidecars != 1 || summary.Failed != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.Elapsed == "" {
		t.Error("expected Elapsed to be set")
	}
	if path, _ := r.catalog.Find("addlabelheader", meta.KindProcedure); path != filepath.Join(dir, "CIN0103R.sqlrpgle") {
		t.Errorf("expected catalog hit, got %q", path)
	}
}

func Test_reconcileAll_DropsVanishedFolders(t *testing.T) {
	r := newTestReconciler(t)
	dir := "/mirror/S067454R/STEVESRC"
	mirrorFile(t, r, dir, "CIN0103R.sqlrpgle", "SQLRPGLE")
	if _, err := r.reconcileAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r.catalog.FolderCount() != 1 {
		t.Fatalf("expected 1 cataloged folder, got %d", r.catalog.FolderCount())
	}

	if err := r.manager.Store().Fs().RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	summary, err := r.reconcileAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if summary.Folders != 0 {
		t.Errorf("expected no folders, got %d", summary.Folders)
	}
	if r.catalog.FolderCount() != 0 {
		t.Errorf("expected vanished folder to be dropped, got %v", r.catalog.Dirs())
	}
}

func Test_reconcileAll_Cancelled(t *testing.T) {
	r := newTestReconciler(t)
	mirrorFile(t, r, "/mirror/S067454R/STEVESRC", "CIN0103R.sqlrpgle", "SQLRPGLE")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.reconcileAll(ctx); err == nil {
		t.Error("expected cancellation error")
	}
}

func Test_reconcileDir_MissingFolder(t *testing.T) {
	r := newTestReconciler(t)

	if _, err := r.reconcileDir(context.Background(), "/mirror/NOPE"); err == nil {
		t.Error("expected error for a missing folder")
	}
}

func Test_runPeriodicReconcile_StopsOnCancel(t *testing.T) {
	r := newTestReconciler(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		runPeriodicReconcile(ctx, time.Second, r, testLogger())
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("runPeriodicReconcile did not stop within 3 seconds after cancel")
	}
}

func Test_runPeriodicReconcile_Reconciles(t *testing.T) {
	r := newTestReconciler(t)
	mirrorFile(t, r, "/mirror/S067454R/STEVESRC", "CIN0103R.sqlrpgle", "SQLRPGLE",
		meta.DefinedSymbol{SymbolName: "AddLabelHeader", SymbolType: meta.KindProcedure})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runPeriodicReconcile(ctx, 20*time.Millisecond, r, testLogger())
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.Now().Add(3 * time.Second)
	for r.catalog.SymbolCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("periodic reconcile never cataloged the folder")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
