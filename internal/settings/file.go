package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileStore persists settings as a JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the settings file. A missing or unreadable file yields empty
// settings; the system keeps running with whatever it has in memory.
func (s *FileStore) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Settings{}, nil
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return Settings{}, nil
	}
	return loaded, nil
}

// Save writes the settings atomically, stamping LastSaved.
func (s *FileStore) Save(settings Settings) error {
	settings.LastSaved = time.Now()

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write settings tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename settings: %w", err)
	}

	return nil
}
