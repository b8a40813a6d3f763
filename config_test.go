package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

func Test_loadSettings_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	settings := loadSettings(v)

	if settings.Sidecar.MetadataDir != ".mirror" || settings.Sidecar.OriginalDir != ".meta" {
		t.Errorf("unexpected sidecar dirs: %+v", settings.Sidecar)
	}
	if settings.Scan.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", settings.Scan.Workers)
	}
	if !settings.Watch.Enabled || settings.Debounce() != 200*time.Millisecond {
		t.Errorf("unexpected watch settings: %+v", settings.Watch)
	}
	if settings.ReconcileInterval() != 0 {
		t.Errorf("expected periodic reconcile to be disabled, got %v", settings.ReconcileInterval())
	}
}

func Test_initConfig_FileAndEnvironment(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[sidecar]
metadata_dir = ".info"

[reconcile]
interval_seconds = 30

[ignore]
patterns = ["*.lst"]
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MIRRORMETA_SCAN_WORKERS", "3")

	v := viper.New()
	if err := initConfig(v, configPath); err != nil {
		t.Fatalf("initConfig() error: %v", err)
	}
	settings := loadSettings(v)

	if settings.Layout().MetadataDir != ".info" {
		t.Errorf("expected metadata dir from file, got %q", settings.Layout().MetadataDir)
	}
	if settings.Layout().OriginalDir != ".meta" {
		t.Errorf("expected default original dir, got %q", settings.Layout().OriginalDir)
	}
	if settings.ReconcileInterval() != 30*time.Second {
		t.Errorf("expected 30s interval, got %v", settings.ReconcileInterval())
	}
	if len(settings.Ignore.Patterns) != 1 || settings.Ignore.Patterns[0] != "*.lst" {
		t.Errorf("unexpected ignore patterns: %v", settings.Ignore.Patterns)
	}
	if settings.Scan.Workers != 3 {
		t.Errorf("expected workers from environment, got %d", settings.Scan.Workers)
	}
}

func Test_initConfig_MissingExplicitFile(t *testing.T) {
	v := viper.New()
	if err := initConfig(v, filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func Test_Settings_TOML(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	data, err := loadSettings(v).TOML()
	if err != nil {
		t.Fatalf("TOML() error: %v", err)
	}
	text := string(data)
	for _, want := range []string{"[sidecar]", "metadata_dir = ", ".mirror", "[watch]", "debounce_ms = 200"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in:\n%s", want, text)
		}
	}

	var decoded Settings
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid TOML: %v", err)
	}
	if decoded.Scan.Workers != 8 {
		t.Errorf("expected workers to survive, got %d", decoded.Scan.Workers)
	}
}

func Test_resolveRoots(t *testing.T) {
	roots, err := resolveRoots(nil)
	if err != nil {
		t.Fatal(err)
	}
	wd, _ := os.Getwd()
	if len(roots) != 1 || roots[0] != wd {
		t.Errorf("expected working directory, got %v", roots)
	}

	roots, err = resolveRoots([]string{"relative"})
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(roots[0]) {
		t.Errorf("expected absolute root, got %s", roots[0])
	}
}
