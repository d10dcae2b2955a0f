// Package storage persists season documents as JSON files.
//
// Each season is written to race_data_<season>.json in the output directory.
// Writes are atomic: the document goes to a temporary file first and is
// renamed over the target, so a crashed run never leaves a truncated file and
// re-running a season replaces the previous document.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rewired-gh/racepace/internal/models"
)

const indent = "    "

// Storage writes season documents to a directory.
type Storage struct {
	mu              sync.Mutex
	dir             string
	filePermissions os.FileMode
	dirPermissions  os.FileMode
}

// New creates a Storage writing to dir. If dir is empty, uses an
// OS-appropriate tmp directory.
func New(dir string, filePermissions, dirPermissions os.FileMode) *Storage {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "racepace")
	}

	return &Storage{
		dir:             dir,
		filePermissions: filePermissions,
		dirPermissions:  dirPermissions,
	}
}

// Path returns the file a season document is written to.
func (s *Storage) Path(season int) string {
	return filepath.Join(s.dir, fmt.Sprintf("race_data_%d.json", season))
}

// SaveSeason writes doc for season and returns the written path. An empty
// document is written as an empty array.
func (s *Storage) SaveSeason(season int, doc models.SeasonDocument) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, s.dirPermissions); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if doc == nil {
		doc = models.SeasonDocument{}
	}
	jsonData, err := json.MarshalIndent(doc, "", indent)
	if err != nil {
		return "", fmt.Errorf("failed to marshal season %d: %w", season, err)
	}

	path := s.Path(season)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, s.filePermissions); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename file: %w", err)
	}

	return path, nil
}

// CleanStale removes temporary files left behind by interrupted writes.
func (s *Storage) CleanStale() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "race_data_*.json.tmp"))
	if err != nil {
		return fmt.Errorf("failed to list temp files: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", m, err)
		}
	}
	return nil
}
