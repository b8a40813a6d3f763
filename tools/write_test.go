package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/spf13/afero"
)

func testListing(member string) meta.ListingRecord {
	return meta.ListingRecord{
		MemberName: member,
		FileName:   "STEVESRC",
		Library:    "S067454R",
		SourceType: "SQLRPGLE",
		Text:       "print container labels",
		ChangeDate: "1230415",
		ChangeTime: "101500",
	}
}

func Test_WriteHandler_RecordsMember(t *testing.T) {
	env := newTestEnv(t)
	env.writeOrphan(t, "CIN0103R.sqlrpgle")
	path := filepath.Join(testDir, "CIN0103R.sqlrpgle")
	h := &WriteHandler{Manager: env.manager, Catalog: env.catalog, Logger: env.logger}

	result, _, err := h.Handle(context.Background(), nil, WriteArgs{
		Path:            path,
		Listing:         testListing("CIN0103R"),
		StartLine:       meta.StartLine(77),
		CaptureOriginal: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("expected success, got: %s", text)
	}
	if !strings.Contains(text, "S067454R/STEVESRC(CIN0103R)") || !strings.Contains(text, "Original content recorded") {
		t.Errorf("unexpected output:\n%s", text)
	}

	record := env.store.Read(path)
	if record == nil {
		t.Fatal("expected metadata to be stored")
	}
	if record.CompileTimeArrayStart != 77 {
		t.Errorf("expected start line 77, got %d", record.CompileTimeArrayStart)
	}
	if env.store.ReadOriginal(path) == nil {
		t.Error("expected original content to be stored")
	}
	if env.catalog.Symbols(testDir) == nil {
		t.Error("expected the folder to be cataloged")
	}
}

func Test_WriteHandler_Validation(t *testing.T) {
	env := newTestEnv(t)
	h := &WriteHandler{Manager: env.manager, Catalog: env.catalog, Logger: env.logger}

	tests := []WriteArgs{
		{Listing: testListing("CIN0103R")},
		{Path: filepath.Join(testDir, "CIN0103R.sqlrpgle")},
		{Path: filepath.Join(testDir, "GHOST.sqlrpgle"), Listing: testListing("GHOST")},
	}
	for _, args := range tests {
		result, _, _ := h.Handle(context.Background(), nil, args)
		if !result.IsError {
			t.Errorf("expected IsError=true for %+v", args)
		}
	}
}

func Test_SetSymbolsHandler_FeedsFindDefinition(t *testing.T) {
	env := newTestEnv(t)
	path := env.mirrorMember(t, "UTL0001R.rpgle", "RPGLE", "**free\n")
	env.refresh(t)
	h := &SetSymbolsHandler{Manager: env.manager, Catalog: env.catalog, Logger: env.logger}

	result, _, _ := h.Handle(context.Background(), nil, SetSymbolsArgs{
		Path: path,
		Symbols: []meta.DefinedSymbol{
			{SymbolName: "String_Trim", SymbolType: "PROCEDURE", LineNum: 12},
			{SymbolName: "TrimLoop", SymbolType: meta.KindSubroutine},
		},
	})
	if result.IsError {
		t.Fatalf("expected success, got: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "Recorded 2 symbols") {
		t.Errorf("unexpected output: %s", resultText(t, result))
	}

	found, _ := env.catalog.Find("string_trim", meta.KindProcedure)
	if found != path {
		t.Errorf("expected catalog to find %s, got %q", path, found)
	}
	if kind := env.store.Read(path).DefinedSymbols[0].SymbolType; kind != meta.KindProcedure {
		t.Errorf("expected canonical kind, got %q", kind)
	}
}

func Test_SetSymbolsHandler_Rejects(t *testing.T) {
	env := newTestEnv(t)
	path := env.mirrorMember(t, "UTL0001R.rpgle", "RPGLE", "**free\n")
	h := &SetSymbolsHandler{Manager: env.manager, Catalog: env.catalog, Logger: env.logger}

	tests := []SetSymbolsArgs{
		{Path: path, Symbols: []meta.DefinedSymbol{{SymbolName: " ", SymbolType: meta.KindProcedure}}},
		{Path: path, Symbols: []meta.DefinedSymbol{{SymbolName: "X", SymbolType: "macro"}}},
		{Path: filepath.Join(testDir, "NOMETA.rpgle"), Symbols: []meta.DefinedSymbol{{SymbolName: "X", SymbolType: meta.KindProcedure}}},
	}
	for _, args := range tests {
		result, _, _ := h.Handle(context.Background(), nil, args)
		if !result.IsError {
			t.Errorf("expected IsError=true for %+v", args)
		}
	}
}

func Test_SetChangeTrackingHandler(t *testing.T) {
	env := newTestEnv(t)
	path := env.mirrorMember(t, "UTL0001R.rpgle", "RPGLE", "**free\n")
	h := &SetChangeTrackingHandler{Manager: env.manager, Logger: env.logger}

	result, _, _ := h.Handle(context.Background(), nil, SetChangeTrackingArgs{
		Path: path, ChangeDate: "1240102", ChangeTime: "080000", ModTime: 1704182400000,
	})
	if result.IsError {
		t.Fatalf("expected success, got: %s", resultText(t, result))
	}
	record := env.store.Read(path)
	if record.ChangeDate != "1240102" || record.ChangeTime != "080000" || record.ModifiedTimestamp != 1704182400000 {
		t.Errorf("change stamps not stored: %+v", record)
	}

	result, _, _ = h.Handle(context.Background(), nil, SetChangeTrackingArgs{Path: filepath.Join(testDir, "NOMETA.rpgle")})
	if !result.IsError {
		t.Error("expected IsError=true for a file without metadata")
	}
}

func Test_ForgetHandler_MakesOrphan(t *testing.T) {
	env := newTestEnv(t)
	path := env.mirrorMember(t, "UTL0001R.rpgle", "RPGLE", "**free\n",
		meta.DefinedSymbol{SymbolName: "String_Trim", SymbolType: meta.KindProcedure})
	env.refresh(t)
	h := &ForgetHandler{Manager: env.manager, Catalog: env.catalog, Logger: env.logger}

	result, _, _ := h.Handle(context.Background(), nil, ForgetArgs{Path: path})
	if result.IsError {
		t.Fatalf("expected success, got: %s", resultText(t, result))
	}
	if env.store.Read(path) != nil {
		t.Error("expected metadata to be removed")
	}
	if exists, _ := afero.Exists(env.store.Fs(), path); !exists {
		t.Error("expected the mirrored file to be kept")
	}
	if found, _ := env.catalog.Find("string_trim", meta.KindProcedure); found != "" {
		t.Errorf("expected symbol to leave the catalog, found in %s", found)
	}
}
