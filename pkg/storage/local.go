// Package storage implements the on-disk media store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrFileExists is returned when the target name is already taken.
var ErrFileExists = errors.New("file already exists")

// Local stores files under root using <category>/<YYYY>/<MM>/<DD>/<name>.
type Local struct {
	root string
	now  func() time.Time
}

// NewLocal creates the root directory if needed and returns a store.
func NewLocal(root string) (*Local, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Local{root: root, now: time.Now}, nil
}

// Root returns the directory files are written under.
func (l *Local) Root() string {
	return l.root
}

// RelativePath returns the slash-separated path a file named name in category
// would receive today.
func (l *Local) RelativePath(category, name string) string {
	today := l.now()
	return path.Join(category, today.Format("2006"), today.Format("01"), today.Format("02"), name)
}

// Exists reports whether name is already stored in today's folder for category.
func (l *Local) Exists(_ context.Context, category, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(l.root, filepath.FromSlash(l.RelativePath(category, name))))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Save writes reader to category/name. The file only becomes visible once
// fully written; an existing file with the same name yields ErrFileExists.
func (l *Local) Save(_ context.Context, category, name string, reader io.Reader) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	rel := l.RelativePath(category, name)
	target := filepath.Join(l.root, filepath.FromSlash(rel))
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}

	if err := os.Link(tmpName, target); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", ErrFileExists
		}
		return "", fmt.Errorf("publish file: %w", err)
	}

	return rel, nil
}
