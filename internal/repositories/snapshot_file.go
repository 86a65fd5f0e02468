package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/shared"
)

// SnapshotFile persists the latest weekplan snapshot as a single JSON document.
type SnapshotFile struct {
	path string
}

// NewSnapshotFile creates a SnapshotFile stored at path
func NewSnapshotFile(path string) *SnapshotFile {
	return &SnapshotFile{path: path}
}

// Path returns the file location
func (f *SnapshotFile) Path() string { return f.path }

// Save replaces the stored snapshot atomically
func (f *SnapshotFile) Save(snap *models.WeekplanSnapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot", shared.ErrMissingArgument)
	}
	return shared.WriteJSONFile(f.path, snap, 0644)
}

// Load returns the stored snapshot, or nil when none has been saved yet
func (f *SnapshotFile) Load() (*models.WeekplanSnapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap models.WeekplanSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrInvalidInput, f.path, err)
	}
	return &snap, nil
}

// Exists reports whether a snapshot has been saved
func (f *SnapshotFile) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Remove deletes the stored snapshot and reports whether there was one
func (f *SnapshotFile) Remove() (bool, error) {
	return shared.RemoveIfExists(f.path)
}
