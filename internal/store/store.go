// Package store persists every skill tree in one settings file and tracks
// which tree is active.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/msalah0e/skilltree/internal/graph"
)

// DefaultTree is the tree created for a fresh install and the home of
// single-tree settings files.
const DefaultTree = "Default"

var (
	ErrTreeNotFound = errors.New("tree not found")
	ErrTreeExists   = errors.New("tree already exists")
	ErrMissingName  = errors.New("tree has no name")
)

// Settings is the on-disk shape: every tree by name plus the active one.
type Settings struct {
	Trees           map[string]*graph.Tree `json:"trees"`
	CurrentTreeName string                 `json:"currentTreeName"`
}

// Dir is the directory holding the settings file and saved histories.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "skilltree")
}

// DefaultPath is where Open looks when given no path.
func DefaultPath() string { return filepath.Join(Dir(), "trees.json") }

// Manager owns the settings file. It is not safe for concurrent use.
type Manager struct {
	path     string
	settings Settings
}

// Open loads the settings at path, or DefaultPath when path is empty. A
// missing file yields a single empty Default tree.
func Open(path string) (*Manager, error) {
	if path == "" {
		path = DefaultPath()
	}
	m := &Manager{path: path}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		m.settings = Settings{Trees: map[string]*graph.Tree{}}
	case err != nil:
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	default:
		s, err := decodeSettings(data)
		if err != nil {
			return nil, fmt.Errorf("store: parse %s: %w", path, err)
		}
		m.settings = s
	}
	m.ensureCurrent()
	return m, nil
}

// ensureCurrent guarantees exactly one active tree exists.
func (m *Manager) ensureCurrent() {
	if _, ok := m.settings.Trees[m.settings.CurrentTreeName]; ok {
		return
	}
	if names := m.Names(); len(names) > 0 {
		m.settings.CurrentTreeName = names[0]
		return
	}
	m.settings.Trees[DefaultTree] = newTree(DefaultTree)
	m.settings.CurrentTreeName = DefaultTree
}

func newTree(name string) *graph.Tree {
	return &graph.Tree{Name: name, Graph: *graph.New()}
}

func (m *Manager) Path() string { return m.path }

// Current is the active tree. Edits made through the returned pointer are
// what Save writes.
func (m *Manager) Current() *graph.Tree { return m.settings.Trees[m.settings.CurrentTreeName] }

func (m *Manager) CurrentName() string { return m.settings.CurrentTreeName }

// Names lists every tree, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.settings.Trees))
	for name := range m.settings.Trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tree looks a tree up by name.
func (m *Manager) Tree(name string) (*graph.Tree, error) {
	t, ok := m.settings.Trees[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTreeNotFound, name)
	}
	return t, nil
}

// Switch makes name the active tree. teardown, when set, runs on the
// outgoing tree before the incoming one is handed out; the outgoing tree
// is persisted with the new selection.
func (m *Manager) Switch(name string, teardown func(outgoing *graph.Tree)) (*graph.Tree, error) {
	next, err := m.Tree(name)
	if err != nil {
		return nil, err
	}
	if name == m.settings.CurrentTreeName {
		return next, nil
	}
	if teardown != nil {
		teardown(m.Current())
	}
	m.settings.CurrentTreeName = name
	return next, m.Save()
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrMissingName
	}
	return nil
}

// Create adds an empty tree. It does not switch to it.
func (m *Manager) Create(name string) (*graph.Tree, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if _, ok := m.settings.Trees[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrTreeExists, name)
	}
	t := newTree(name)
	m.settings.Trees[name] = t
	return t, m.Save()
}

// Delete removes a tree and its saved history. Deleting the active tree
// activates the first remaining one, or a fresh Default tree.
func (m *Manager) Delete(name string) error {
	if _, err := m.Tree(name); err != nil {
		return err
	}
	delete(m.settings.Trees, name)
	m.ensureCurrent()
	if err := m.removeHistory(name); err != nil {
		return err
	}
	return m.Save()
}

// Rename moves a tree to a new name, carrying its history along.
func (m *Manager) Rename(oldName, newName string) error {
	t, err := m.Tree(oldName)
	if err != nil {
		return err
	}
	if err := validName(newName); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if _, ok := m.settings.Trees[newName]; ok {
		return fmt.Errorf("%w: %q", ErrTreeExists, newName)
	}
	delete(m.settings.Trees, oldName)
	t.Name = newName
	m.settings.Trees[newName] = t
	if m.settings.CurrentTreeName == oldName {
		m.settings.CurrentTreeName = newName
	}
	if err := m.renameHistory(oldName, newName); err != nil {
		return err
	}
	return m.Save()
}

// Save writes the settings file atomically.
func (m *Manager) Save() error {
	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(m.path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

// Import adds a tree from its JSON form. A payload without a name is
// rejected; a name already in use fails with ErrTreeExists unless overwrite
// is set, in which case the stored tree is replaced wholesale.
func (m *Manager) Import(data []byte, overwrite bool) (*graph.Tree, error) {
	var raw rawTree
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("store: parse tree: %w", err)
	}
	if err := validName(raw.Name); err != nil {
		return nil, err
	}
	if _, ok := m.settings.Trees[raw.Name]; ok && !overwrite {
		return nil, fmt.Errorf("%w: %q", ErrTreeExists, raw.Name)
	}
	t, err := raw.tree(raw.Name)
	if err != nil {
		return nil, err
	}
	m.settings.Trees[t.Name] = t
	return t, m.Save()
}

// Copy returns a deep copy of a stored tree.
func (m *Manager) Copy(name string) (graph.Tree, error) {
	t, err := m.Tree(name)
	if err != nil {
		return graph.Tree{}, err
	}
	return graph.Tree{Name: t.Name, Graph: t.Graph.Clone()}, nil
}

// Export renders a deep copy of a tree as indented JSON.
func (m *Manager) Export(name string) ([]byte, error) {
	t, err := m.Copy(name)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(t, "", "  ")
}
