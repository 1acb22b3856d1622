package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/c360studio/actionmark/annotation"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Sync.Threshold != "P1" {
		t.Errorf("expected default threshold P1, got %s", cfg.Sync.Threshold)
	}
	if cfg.Sync.LabelNamespace != "actionmark" {
		t.Errorf("expected default label namespace actionmark, got %s", cfg.Sync.LabelNamespace)
	}
	if len(cfg.Scan.Extensions) == 0 {
		t.Error("expected non-empty default extensions")
	}
	if cfg.Scan.Root != "" {
		t.Errorf("expected empty default root for auto-detection, got %s", cfg.Scan.Root)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty extensions",
			modify:  func(c *Config) { c.Scan.Extensions = nil },
			wantErr: true,
		},
		{
			name:    "invalid threshold",
			modify:  func(c *Config) { c.Sync.Threshold = "P7" },
			wantErr: true,
		},
		{
			name:    "empty threshold",
			modify:  func(c *Config) { c.Sync.Threshold = "" },
			wantErr: true,
		},
		{
			name:    "missing label namespace",
			modify:  func(c *Config) { c.Sync.LabelNamespace = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSyncThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.Threshold = "P2"
	if got := cfg.SyncThreshold(); got != annotation.PriorityP2 {
		t.Errorf("expected P2, got %s", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
scan:
  root: "/test/path"
  extensions:
    - .go
    - .py
  exclude:
    - vendor
  exclude_globs:
    - "gen/**"
sync:
  threshold: "P0"
  label_namespace: "todo"
report:
  path: "out/report.md"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Scan.Root != "/test/path" {
		t.Errorf("expected root /test/path, got %s", cfg.Scan.Root)
	}
	if len(cfg.Scan.Extensions) != 2 {
		t.Errorf("expected 2 extensions, got %d", len(cfg.Scan.Extensions))
	}
	if len(cfg.Scan.ExcludeGlobs) != 1 || cfg.Scan.ExcludeGlobs[0] != "gen/**" {
		t.Errorf("unexpected exclude globs: %v", cfg.Scan.ExcludeGlobs)
	}
	if cfg.Sync.Threshold != "P0" {
		t.Errorf("expected threshold P0, got %s", cfg.Sync.Threshold)
	}
	if cfg.Sync.LabelNamespace != "todo" {
		t.Errorf("expected label namespace todo, got %s", cfg.Sync.LabelNamespace)
	}
	if cfg.Report.Path != "out/report.md" {
		t.Errorf("expected report path out/report.md, got %s", cfg.Report.Path)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Scan: ScanConfig{
			Root: "/override/path",
		},
		Sync: SyncConfig{
			Threshold: "P2",
		},
	}

	base.Merge(override)

	if base.Scan.Root != "/override/path" {
		t.Errorf("expected root /override/path, got %s", base.Scan.Root)
	}
	if base.Sync.Threshold != "P2" {
		t.Errorf("expected threshold P2, got %s", base.Sync.Threshold)
	}
	// Label namespace should remain from base since override didn't set it
	if base.Sync.LabelNamespace != "actionmark" {
		t.Errorf("expected label namespace to remain default, got %s", base.Sync.LabelNamespace)
	}
	if len(base.Scan.Extensions) == 0 {
		t.Error("expected extensions to remain default")
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Sync.Threshold = "P3"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Sync.Threshold != "P3" {
		t.Errorf("expected threshold P3, got %s", loaded.Sync.Threshold)
	}
}
