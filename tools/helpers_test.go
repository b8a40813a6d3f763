package tools

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/lexandro/mirrormeta-mcp/index"
	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/lexandro/mirrormeta-mcp/mirror"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"
)

const testDir = "/mirror/S067454R/STEVESRC"

type testEnv struct {
	store   *meta.Store
	manager *mirror.Manager
	catalog *index.Catalog
	logger  *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := meta.NewStore(meta.StoreOptions{Fs: afero.NewMemMapFs(), Logger: logger})
	catalog, err := index.NewCatalog(store)
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	t.Cleanup(func() { catalog.Close() })

	return &testEnv{
		store:   store,
		manager: mirror.NewManager(store, logger, 2),
		catalog: catalog,
		logger:  logger,
	}
}

// mirrorMember writes a mirrored file with the given content and its metadata sidecar.
func (e *testEnv) mirrorMember(t *testing.T, fileName string, srcType string, content string, symbols ...meta.DefinedSymbol) string {
	t.Helper()
	path := filepath.Join(testDir, fileName)
	if err := afero.WriteFile(e.store.Fs(), path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	listing := meta.ListingRecord{
		MemberName: fileName[:len(fileName)-len(filepath.Ext(fileName))],
		FileName:   "STEVESRC",
		Library:    "S067454R",
		SourceType: srcType,
		Text:       "test member",
	}
	if _, err := e.store.Write(testDir, fileName, meta.Source{Listing: &listing}); err != nil {
		t.Fatal(err)
	}
	if len(symbols) > 0 {
		if _, err := e.store.Apply(path, meta.SetDefinedSymbols{Symbols: symbols}); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func (e *testEnv) writeOrphan(t *testing.T, fileName string) {
	t.Helper()
	if err := afero.WriteFile(e.store.Fs(), filepath.Join(testDir, fileName), []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) refresh(t *testing.T) {
	t.Helper()
	if _, err := e.catalog.Refresh(testDir); err != nil {
		t.Fatal(err)
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected a result with content")
	}
	return result.Content[0].(*mcp.TextContent).Text
}
