package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
)

const settingsFile = "settings.json"

// JSONStore keeps the whole document in memory and rewrites the settings
// file on every Put/Remove. Single-process use; last writer wins.
type JSONStore struct {
	path string
	doc  map[string]any

	// RecoveredBackup is set when the settings file was not valid JSON
	// and had to be moved aside before starting fresh.
	RecoveredBackup string
}

// OpenJSON loads <dir>/settings.json, creating the directory and a blank
// document when absent. A corrupt file is backed up next to itself rather
// than discarded.
func OpenJSON(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	s := &JSONStore{path: filepath.Join(dir, settingsFile)}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.doc = map[string]any{}
		if err := s.flush(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err := json.Unmarshal(data, &s.doc); err != nil {
		backup := filepath.Join(dir, "settings-backup-"+ulid.Make().String()+".json")
		if renameErr := os.Rename(s.path, backup); renameErr != nil {
			return nil, fmt.Errorf("back up corrupt settings: %w", renameErr)
		}
		s.RecoveredBackup = backup
		s.doc = map[string]any{}
		if err := s.flush(); err != nil {
			return nil, err
		}
	}
	if s.doc == nil {
		s.doc = map[string]any{}
	}
	return s, nil
}

func (s *JSONStore) Get(keys ...string) (any, error) {
	return traverse(s.doc, keys)
}

func (s *JSONStore) Put(value any, keys ...string) error {
	if err := putPath(s.doc, value, keys); err != nil {
		return err
	}
	return s.flush()
}

func (s *JSONStore) Remove(keys ...string) error {
	if err := removePath(s.doc, keys); err != nil {
		return err
	}
	return s.flush()
}

func (s *JSONStore) Load() (map[string]any, error) {
	return s.doc, nil
}

func (s *JSONStore) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(s.doc)
}

func (s *JSONStore) flush() error {
	data, err := json.MarshalIndent(s.doc, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
