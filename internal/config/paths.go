package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathsConfig holds the on-disk layout: downloaded workbooks are cached under
// CacheDir, CSV exports land under ExportDir. Relative paths resolve against
// the working directory.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR"`
	CacheDir  string `yaml:"cache_dir" envconfig:"CACHE_DIR"`
	ExportDir string `yaml:"export_dir" envconfig:"EXPORT_DIR"`
}

func defaultPaths() PathsConfig {
	return PathsConfig{DataDir: "data"}
}

// resolve derives the cache and export directories from DataDir when they are
// not set explicitly, and makes everything absolute.
func (p *PathsConfig) resolve() error {
	if p.DataDir == "" {
		p.DataDir = "data"
	}
	if p.CacheDir == "" {
		p.CacheDir = filepath.Join(p.DataDir, "cache")
	}
	if p.ExportDir == "" {
		p.ExportDir = filepath.Join(p.DataDir, "exports")
	}
	for _, dir := range []*string{&p.DataDir, &p.CacheDir, &p.ExportDir} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", *dir, err)
		}
		*dir = abs
	}
	return nil
}

// EnsureDirectories creates the cache and export directories.
func (p *PathsConfig) EnsureDirectories() error {
	for _, dir := range []string{p.CacheDir, p.ExportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CachePath returns the full path for a cached file name.
func (p *PathsConfig) CachePath(name string) string {
	return filepath.Join(p.CacheDir, name)
}

// ExportPath returns the full path for an export file name.
func (p *PathsConfig) ExportPath(name string) string {
	return filepath.Join(p.ExportDir, name)
}
