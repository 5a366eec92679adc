package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/msalah0e/skilltree/internal/history"
)

func (m *Manager) historyPath(name string) string {
	return filepath.Join(filepath.Dir(m.path), "history", url.PathEscape(name)+".json")
}

// LoadHistory restores the saved undo stacks of a tree, bounded by limit.
// A missing or unreadable file gives an empty history.
func (m *Manager) LoadHistory(name string, limit int) *history.Manager {
	h := history.New(limit)
	data, err := os.ReadFile(m.historyPath(name))
	if err != nil {
		return h
	}
	if err := json.Unmarshal(data, h); err != nil {
		return history.New(limit)
	}
	if limit > 0 {
		h.SetLimit(limit)
	}
	return h
}

// SaveHistory writes the undo stacks of a tree next to the settings file.
func (m *Manager) SaveHistory(name string, h *history.Manager) error {
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return writeFile(m.historyPath(name), data)
}

func (m *Manager) removeHistory(name string) error {
	err := os.Remove(m.historyPath(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: remove history: %w", err)
	}
	return nil
}

func (m *Manager) renameHistory(oldName, newName string) error {
	err := os.Rename(m.historyPath(oldName), m.historyPath(newName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: rename history: %w", err)
	}
	return nil
}
