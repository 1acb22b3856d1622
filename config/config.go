// Package config provides configuration loading and management for
// actionmark.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/actionmark/annotation"
)

// Config represents the complete actionmark configuration.
type Config struct {
	Scan   ScanConfig   `yaml:"scan"`
	Sync   SyncConfig   `yaml:"sync"`
	Report ReportConfig `yaml:"report"`
}

// ScanConfig configures the annotation scanner.
type ScanConfig struct {
	// Root is the directory to scan (auto-detected from git if empty).
	Root string `yaml:"root"`
	// Extensions lists file extensions to scan, with leading dot.
	Extensions []string `yaml:"extensions"`
	// Exclude lists path substrings to skip.
	Exclude []string `yaml:"exclude"`
	// ExcludeGlobs lists doublestar patterns to skip, relative to Root.
	ExcludeGlobs []string `yaml:"exclude_globs"`
}

// SyncConfig configures issue synchronization.
type SyncConfig struct {
	// Threshold is the priority cutoff for issue creation; "P1" means
	// P0 and P1 annotations are synchronized.
	Threshold string `yaml:"threshold"`
	// LabelNamespace prefixes every label applied to created issues.
	LabelNamespace string `yaml:"label_namespace"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	// Path is where the Markdown report is written; empty disables the file.
	Path string `yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Root: "", // Auto-detect
			Extensions: []string{
				".go", ".c", ".h", ".cpp", ".java", ".js", ".jsx", ".ts", ".tsx",
				".cs", ".kt", ".rs", ".sh", ".bash", ".py", ".rb", ".yaml", ".yml",
				".md", ".html", ".xml",
			},
			Exclude: []string{".git", "node_modules", "vendor", "target", "dist", "build"},
		},
		Sync: SyncConfig{
			Threshold:      "P1",
			LabelNamespace: "actionmark",
		},
		Report: ReportConfig{
			Path: "",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Scan.Extensions) == 0 {
		return fmt.Errorf("scan.extensions must not be empty")
	}
	if _, err := annotation.ParsePriority(c.Sync.Threshold); err != nil {
		return fmt.Errorf("sync.threshold: %w", err)
	}
	if c.Sync.LabelNamespace == "" {
		return fmt.Errorf("sync.label_namespace is required")
	}
	return nil
}

// SyncThreshold returns the parsed sync threshold priority. Validate must
// have succeeded first.
func (c *Config) SyncThreshold() annotation.Priority {
	p, err := annotation.ParsePriority(c.Sync.Threshold)
	if err != nil {
		return annotation.PriorityP1
	}
	return p
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Scan.Root != "" {
		c.Scan.Root = other.Scan.Root
	}
	if len(other.Scan.Extensions) > 0 {
		c.Scan.Extensions = other.Scan.Extensions
	}
	if len(other.Scan.Exclude) > 0 {
		c.Scan.Exclude = other.Scan.Exclude
	}
	if len(other.Scan.ExcludeGlobs) > 0 {
		c.Scan.ExcludeGlobs = other.Scan.ExcludeGlobs
	}

	if other.Sync.Threshold != "" {
		c.Sync.Threshold = other.Sync.Threshold
	}
	if other.Sync.LabelNamespace != "" {
		c.Sync.LabelNamespace = other.Sync.LabelNamespace
	}

	if other.Report.Path != "" {
		c.Report.Path = other.Report.Path
	}
}
