// Package notes is the file-backed stand-in for the host's document store:
// reading and writing linked markdown documents, their YAML front matter and
// change notifications.
package notes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/msalah0e/skilltree/internal/tasks"
)

// Vault resolves document links relative to a root directory.
type Vault struct {
	Root string
}

func NewVault(root string) *Vault {
	return &Vault{Root: root}
}

// Path resolves a link to a file path. Absolute links are used as is.
func (v *Vault) Path(link string) string {
	if filepath.IsAbs(link) {
		return filepath.Clean(link)
	}
	return filepath.Join(v.Root, filepath.FromSlash(link))
}

func (v *Vault) Exists(link string) bool {
	_, err := os.Stat(v.Path(link))
	return err == nil
}

// Read returns the content of a linked document.
func (v *Vault) Read(ctx context.Context, link string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if link == "" {
		return "", errors.New("notes: empty document link")
	}
	data, err := os.ReadFile(v.Path(link))
	if err != nil {
		return "", fmt.Errorf("notes: read %s: %w", link, err)
	}
	return string(data), nil
}

// Write replaces the content of a linked document, creating parent
// directories as needed.
func (v *Vault) Write(ctx context.Context, link, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := v.Path(link)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("notes: write %s: %w", link, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("notes: write %s: %w", link, err)
	}
	return nil
}

// Tasks implements tasks.Provider.
func (v *Vault) Tasks(ctx context.Context, link string) ([]tasks.Task, error) {
	content, err := v.Read(ctx, link)
	if err != nil {
		return nil, err
	}
	return tasks.Parse(content), nil
}
