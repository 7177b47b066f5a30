// Package files manages the on-disk cache of downloaded workbooks.
package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"mischooldata/internal/config"
)

// Manager provides cache file operations for downloaded workbooks.
type Manager struct {
	paths  *config.PathsConfig
	logger *slog.Logger
}

// NewManager creates a cache manager. A nil logger falls back to slog.Default.
func NewManager(paths *config.PathsConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{paths: paths, logger: logger}
}

// WorkbookName returns the cache file name for a year. The 2003 files were
// published in the legacy BIFF container and keep the .xls extension.
func (m *Manager) WorkbookName(endYear int, binary bool) string {
	ext := "xlsx"
	if binary {
		ext = "xls"
	}
	return fmt.Sprintf("enrollment_%d.%s", endYear, ext)
}

// CachedWorkbook returns the cached path for a year if present.
func (m *Manager) CachedWorkbook(endYear int, binary bool) (string, bool) {
	path := m.paths.CachePath(m.WorkbookName(endYear, binary))
	info, err := os.Stat(path)
	exists := err == nil && info.Size() > 0

	m.logger.Debug("cache lookup",
		slog.Int("end_year", endYear),
		slog.String("path", path),
		slog.Bool("hit", exists))

	return path, exists
}

// SaveWorkbook writes a downloaded workbook into the cache. The write goes to
// a temporary file first so a failed download never leaves a truncated entry.
func (m *Manager) SaveWorkbook(endYear int, binary bool, r io.Reader) (string, error) {
	if err := os.MkdirAll(m.paths.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	final := m.paths.CachePath(m.WorkbookName(endYear, binary))
	tmp, err := os.CreateTemp(m.paths.CacheDir, "download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write workbook: %w", err)
	}

	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to finalize workbook: %w", err)
	}

	m.logger.Info("workbook cached",
		slog.Int("end_year", endYear),
		slog.String("path", final),
		slog.Int64("bytes", n))

	return final, nil
}

// Remove deletes a cached workbook, used when a cached file turns out to be
// undecodable.
func (m *Manager) Remove(endYear int, binary bool) error {
	path := m.paths.CachePath(m.WorkbookName(endYear, binary))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
	}
	return nil
}
