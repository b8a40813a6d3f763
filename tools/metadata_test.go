package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func Test_MetadataHandler_ShowsSidecar(t *testing.T) {
	env := newTestEnv(t)
	path := env.mirrorMember(t, "CIN0103R.sqlrpgle", "SQLRPGLE", "**free\n")
	h := &MetadataHandler{Store: env.store, Logger: env.logger}

	result, _, err := h.Handle(context.Background(), nil, MetadataArgs{Path: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got: %s", resultText(t, result))
	}

	text := resultText(t, result)
	for _, want := range []string{`"srcmbr": "CIN0103R"`, `"langCode": "rpg"`, "CIN0103R-sqlrpgle.json"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in output, got:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Locally modified") {
		t.Errorf("member without original content must not be reported modified:\n%s", text)
	}
}

func Test_MetadataHandler_LocallyModified(t *testing.T) {
	env := newTestEnv(t)
	path := env.mirrorMember(t, "CIN0103R.sqlrpgle", "SQLRPGLE", "**free\n")
	if _, err := env.store.WriteOriginal(testDir, "CIN0103R.sqlrpgle", "**free\n"); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(env.store.Fs(), path, []byte("**free\ndcl-s x int(10);\n"), 0644); err != nil {
		t.Fatal(err)
	}
	h := &MetadataHandler{Store: env.store, Logger: env.logger}

	result, _, _ := h.Handle(context.Background(), nil, MetadataArgs{Path: path})

	if !strings.Contains(resultText(t, result), "Locally modified: yes") {
		t.Errorf("expected modification flag, got:\n%s", resultText(t, result))
	}
}

func Test_MetadataHandler_Orphan(t *testing.T) {
	env := newTestEnv(t)
	env.writeOrphan(t, "NEWPGM.rpgle")
	h := &MetadataHandler{Store: env.store, Logger: env.logger}

	result, _, _ := h.Handle(context.Background(), nil, MetadataArgs{Path: filepath.Join(testDir, "NEWPGM.rpgle")})

	if !result.IsError {
		t.Fatal("expected IsError=true for an orphan")
	}
	if !strings.Contains(resultText(t, result), "No metadata") {
		t.Errorf("unexpected message: %s", resultText(t, result))
	}
}

func Test_MetadataHandler_Malformed(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(testDir, "BAD.rpgle")
	env.writeOrphan(t, "BAD.rpgle")
	if err := afero.WriteFile(env.store.Fs(), env.store.Layout().MetadataPath(path), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	h := &MetadataHandler{Store: env.store, Logger: env.logger}

	result, _, _ := h.Handle(context.Background(), nil, MetadataArgs{Path: path})

	if !result.IsError || !strings.Contains(resultText(t, result), "malformed") {
		t.Errorf("expected malformed error result, got: %s", resultText(t, result))
	}
}

func Test_OriginalHandler(t *testing.T) {
	env := newTestEnv(t)
	path := env.mirrorMember(t, "CIN0103R.sqlrpgle", "SQLRPGLE", "**free\nreturn;")
	h := &OriginalHandler{Store: env.store, Logger: env.logger}

	result, _, _ := h.Handle(context.Background(), nil, OriginalArgs{Path: path})
	if !result.IsError {
		t.Fatal("expected IsError=true before any original content is recorded")
	}

	if _, err := env.store.WriteOriginal(testDir, "CIN0103R.sqlrpgle", "**free\nreturn;"); err != nil {
		t.Fatal(err)
	}
	result, _, _ = h.Handle(context.Background(), nil, OriginalArgs{Path: path})
	if result.IsError {
		t.Fatalf("expected success, got: %s", resultText(t, result))
	}
	text := resultText(t, result)
	if !strings.Contains(text, "(2 lines)") || !strings.Contains(text, "2│ return;") {
		t.Errorf("expected numbered original lines, got:\n%s", text)
	}
}
