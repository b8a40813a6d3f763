package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lexandro/mirrormeta-mcp/sidecar"
)

func Test_Matcher_DefaultPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir, Layout: sidecar.DefaultLayout()})

	tests := []struct {
		path    string
		ignored bool
	}{
		{".git/HEAD", true},
		{"S067454R/STEVESRC/.CIN0103R.sqlrpgle.swp", true},
		{"S067454R/STEVESRC/CIN0103R.sqlrpgle~", true},
		{".DS_Store", true},
		{"S067454R/STEVESRC/CIN0103R.sqlrpgle", false},
		{"S067454R/QDDSSRC/SCREEN.dspf", false},
	}

	for _, tt := range tests {
		got := matcher.ShouldIgnore(filepath.Join(tmpDir, filepath.FromSlash(tt.path)))
		if got != tt.ignored {
			t.Errorf("ShouldIgnore(%s) = %v, want %v", tt.path, got, tt.ignored)
		}
	}
}

func Test_Matcher_SidecarDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir, Layout: sidecar.DefaultLayout()})

	sidecarFiles := []string{
		"S067454R/STEVESRC/.mirror/CIN0103R-sqlrpgle.json",
		"S067454R/STEVESRC/.meta/CIN0103R-sqlrpgle-orig.json",
	}
	for _, path := range sidecarFiles {
		if !matcher.ShouldIgnore(filepath.Join(tmpDir, filepath.FromSlash(path))) {
			t.Errorf("expected sidecar file %s to be ignored", path)
		}
	}

	if !matcher.ShouldIgnoreDir(filepath.Join(tmpDir, "S067454R", "STEVESRC", ".mirror")) {
		t.Error("expected metadata dir to be skipped during traversal")
	}
}

func Test_Matcher_CustomLayout(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{
		RootDir: tmpDir,
		Layout:  sidecar.Layout{MetadataDir: ".info", OriginalDir: ".orig"},
	})

	if !matcher.ShouldIgnore(filepath.Join(tmpDir, "SRC", ".info", "A-rpgle.json")) {
		t.Error("expected configured metadata dir to be ignored")
	}
	if !matcher.ShouldIgnoreDir(filepath.Join(tmpDir, "SRC", ".orig")) {
		t.Error("expected configured original dir to be ignored")
	}
}

func Test_Matcher_GitignoreIntegration(t *testing.T) {
	tmpDir := t.TempDir()

	gitignoreContent := "*.savf\nbuild/\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte(gitignoreContent), 0644); err != nil {
		t.Fatal(err)
	}

	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	if !matcher.ShouldIgnore(filepath.Join(tmpDir, "backup.savf")) {
		t.Error("expected .gitignore pattern to ignore *.savf")
	}
	if matcher.ShouldIgnore(filepath.Join(tmpDir, "SRC", "PGM.rpgle")) {
		t.Error("expected member file to be allowed")
	}
}

func Test_Matcher_MirrorIgnoreIntegration(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, MirrorIgnoreFile), []byte("QTEMP/\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "QTEMP"), 0755); err != nil {
		t.Fatal(err)
	}

	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	if !matcher.ShouldIgnoreDir(filepath.Join(tmpDir, "QTEMP")) {
		t.Error("expected .mirrorignore pattern to ignore QTEMP/")
	}
}

func Test_Matcher_CustomPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{
		RootDir:        tmpDir,
		CustomPatterns: []string{"*.lst", "ARCHIVE/**"},
	})

	if !matcher.ShouldIgnore(filepath.Join(tmpDir, "SRC", "compile.lst")) {
		t.Error("expected custom pattern to ignore *.lst files")
	}
	if !matcher.ShouldIgnore(filepath.Join(tmpDir, "ARCHIVE", "OLD", "PGM.rpgle")) {
		t.Error("expected doublestar pattern to ignore files under ARCHIVE")
	}
	if matcher.ShouldIgnore(filepath.Join(tmpDir, "SRC", "PGM.rpgle")) {
		t.Error("expected member file to be allowed")
	}
}

func Test_Matcher_Reload(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	target := filepath.Join(tmpDir, "draft.txt")
	if matcher.ShouldIgnore(target) {
		t.Fatal("expected draft.txt to be allowed before reload")
	}

	if err := os.WriteFile(filepath.Join(tmpDir, MirrorIgnoreFile), []byte("*.txt\n"), 0644); err != nil {
		t.Fatal(err)
	}
	matcher.Reload()

	if !matcher.ShouldIgnore(target) {
		t.Error("expected draft.txt to be ignored after reload")
	}
}

func Test_IsIgnoreFile(t *testing.T) {
	if !IsIgnoreFile(".gitignore") || !IsIgnoreFile(MirrorIgnoreFile) {
		t.Error("expected ignore files to be recognised")
	}
	if IsIgnoreFile("PGM.rpgle") {
		t.Error("member file is not an ignore file")
	}
}
