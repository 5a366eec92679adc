package activity

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/msalah0e/skilltree/internal/config"
)

// Entry is one journaled mutation of a tree.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Tree      string    `json:"tree,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// Matches reports whether q occurs in the action, tree or details,
// ignoring case.
func (e Entry) Matches(q string) bool {
	q = strings.ToLower(q)
	for _, field := range []string{e.Action, e.Tree, e.Details} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Journal is an append-only JSON lines file of entries.
type Journal struct {
	Path string
}

// Default is the journal kept next to the user config.
func Default() *Journal {
	return &Journal{Path: filepath.Join(config.ConfigDir(), "activity.jsonl")}
}

func (j *Journal) Append(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.Path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Entries returns every readable entry, newest first. Lines that do not
// decode are skipped.
func (j *Journal) Entries() ([]Entry, error) {
	f, err := os.Open(j.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var e Entry
		if len(sc.Bytes()) > 0 && json.Unmarshal(sc.Bytes(), &e) == nil {
			out = append(out, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Timestamp.After(out[b].Timestamp)
	})
	return out, nil
}

func (j *Journal) Truncate() error {
	if err := os.Remove(j.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Log journals action on tree in the default journal.
func Log(action, tree, details string) error {
	return Default().Append(Entry{Action: action, Tree: tree, Details: details})
}

func Logf(action, tree, format string, args ...any) error {
	return Log(action, tree, fmt.Sprintf(format, args...))
}

// Read returns at most count of the newest entries. Zero means all.
func Read(count int) ([]Entry, error) {
	all, err := Default().Entries()
	if err != nil {
		return nil, err
	}
	return limit(all, count), nil
}

// Search returns up to count of the newest entries matching query.
func Search(query string, count int) ([]Entry, error) {
	all, err := Default().Entries()
	if err != nil {
		return nil, err
	}
	var hits []Entry
	for _, e := range all {
		if e.Matches(query) {
			hits = append(hits, e)
		}
	}
	return limit(hits, count), nil
}

func Clear() error {
	return Default().Truncate()
}

func limit(entries []Entry, count int) []Entry {
	if count > 0 && len(entries) > count {
		return entries[:count]
	}
	return entries
}
