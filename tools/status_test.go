package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lexandro/mirrormeta-mcp/meta"
)

func Test_FormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"Seconds_zero", 0, "0s"},
		{"Seconds_59", 59 * time.Second, "59s"},
		{"Minutes_5m30s", 5*time.Minute + 30*time.Second, "5m30s"},
		{"Hours_1h30m", 90 * time.Minute, "1h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

func Test_FormatFileSize(t *testing.T) {
	if got := formatFileSize(500); got != "500 B" {
		t.Errorf("expected '500 B', got '%s'", got)
	}
	if got := formatFileSize(2048); got != "2.0 KB" {
		t.Errorf("expected '2.0 KB', got '%s'", got)
	}
	if got := formatFileSize(3 * 1024 * 1024); got != "3.0 MB" {
		t.Errorf("expected '3.0 MB', got '%s'", got)
	}
}

func Test_StatusHandler_ListsFolders(t *testing.T) {
	env := newTestEnv(t)
	env.mirrorMember(t, "CIN0103R.sqlrpgle", "SQLRPGLE", "**free\n",
		meta.DefinedSymbol{SymbolName: "AddLabelHeader", SymbolType: meta.KindProcedure})
	env.refresh(t)
	h := &StatusHandler{Catalog: env.catalog, StartTime: time.Now(), RootDirs: []string{"/mirror"}, Logger: env.logger}

	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Mirror roots: /mirror", "Mirrored folders: 1", "Defined symbols: 1", testDir} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in status, got:\n%s", want, text)
		}
	}
}

func Test_ReconcileHandler(t *testing.T) {
	env := newTestEnv(t)
	h := &ReconcileHandler{
		DoReconcile: func(ctx context.Context) (ReconcileSummary, error) {
			return ReconcileSummary{Folders: 3, Orphans: 1, RemovedSidecars: 2, Elapsed: "5ms"}, nil
		},
		Logger: env.logger,
	}

	result, _, _ := h.Handle(context.Background(), nil, ReconcileArgs{})
	if got := resultText(t, result); !strings.Contains(got, "reconciled: 3 folders (1 orphans, 2 sidecars removed, 0 failed) in 5ms") {
		t.Errorf("unexpected output: %s", got)
	}

	h.DoReconcile = func(ctx context.Context) (ReconcileSummary, error) {
		return ReconcileSummary{}, errors.New("boom")
	}
	result, _, _ = h.Handle(context.Background(), nil, ReconcileArgs{})
	if !result.IsError {
		t.Fatal("expected IsError=true when reconcile fails")
	}
}
