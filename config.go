package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexandro/mirrormeta-mcp/sidecar"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const envPrefix = "MIRRORMETA"

// Settings is the effective configuration after defaults, file, environment and flags.
type Settings struct {
	Sidecar   SidecarSettings   `toml:"sidecar"`
	Log       LogSettings       `toml:"log"`
	Scan      ScanSettings      `toml:"scan"`
	Watch     WatchSettings     `toml:"watch"`
	Reconcile ReconcileSettings `toml:"reconcile"`
	Ignore    IgnoreSettings    `toml:"ignore"`
	Serve     ServeSettings     `toml:"serve"`
}

type SidecarSettings struct {
	MetadataDir string `toml:"metadata_dir"`
	OriginalDir string `toml:"original_dir"`
}

type LogSettings struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type ScanSettings struct {
	Workers int `toml:"workers"`
}

type WatchSettings struct {
	Enabled    bool `toml:"enabled"`
	DebounceMs int  `toml:"debounce_ms"`
}

type ReconcileSettings struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

type IgnoreSettings struct {
	Patterns []string `toml:"patterns"`
}

type ServeSettings struct {
	Roots []string `toml:"roots"`
}

// setDefaults registers every configuration key with its default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("sidecar.metadata_dir", sidecar.DefaultMetadataDir)
	v.SetDefault("sidecar.original_dir", sidecar.DefaultOriginalDir)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("scan.workers", 8)
	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce_ms", 200)
	v.SetDefault("reconcile.interval_seconds", 0)
	v.SetDefault("ignore.patterns", []string{})
	v.SetDefault("serve.roots", []string{})
}

// initConfig wires defaults, the TOML file and MIRRORMETA_* environment overrides into v.
// An explicitly named config file must exist; the default one is optional.
func initConfig(v *viper.Viper, cfgFile string) error {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(filepath.Join(home, ".config", "mirrormeta"))
	v.SetConfigType("toml")
	v.SetConfigName("config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// loadSettings reads the effective settings out of v.
func loadSettings(v *viper.Viper) Settings {
	return Settings{
		Sidecar: SidecarSettings{
			MetadataDir: v.GetString("sidecar.metadata_dir"),
			OriginalDir: v.GetString("sidecar.original_dir"),
		},
		Log: LogSettings{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		Scan: ScanSettings{Workers: v.GetInt("scan.workers")},
		Watch: WatchSettings{
			Enabled:    v.GetBool("watch.enabled"),
			DebounceMs: v.GetInt("watch.debounce_ms"),
		},
		Reconcile: ReconcileSettings{IntervalSeconds: v.GetInt("reconcile.interval_seconds")},
		Ignore:    IgnoreSettings{Patterns: v.GetStringSlice("ignore.patterns")},
		Serve:     ServeSettings{Roots: v.GetStringSlice("serve.roots")},
	}
}

// Layout returns the configured sidecar layout.
func (s Settings) Layout() sidecar.Layout {
	return sidecar.Layout{MetadataDir: s.Sidecar.MetadataDir, OriginalDir: s.Sidecar.OriginalDir}
}

// Debounce returns the watcher quiet period.
func (s Settings) Debounce() time.Duration {
	return time.Duration(s.Watch.DebounceMs) * time.Millisecond
}

// ReconcileInterval returns the periodic reconcile interval, zero when disabled.
func (s Settings) ReconcileInterval() time.Duration {
	if s.Reconcile.IntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(s.Reconcile.IntervalSeconds) * time.Second
}

// TOML renders the settings in config file form.
func (s Settings) TOML() ([]byte, error) {
	data, err := toml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	return data, nil
}
