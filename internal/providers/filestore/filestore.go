package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidName = errors.New("invalid_file_name")

// Store persists generated outputs and returns the public URL each file
// is served from.
type Store interface {
	Save(ctx context.Context, name string, content io.Reader) (string, error)
	Remove(ctx context.Context, name string) error
	URL(name string) string
}

// LocalStore writes outputs to a single flat directory on local disk.
// The HTTP layer serves that directory read-only under the base URL.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("file store directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create file store directory: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes to a temp file and renames it into place, so readers never
// observe a partially written output.
func (s *LocalStore) Save(ctx context.Context, name string, content io.Reader) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, clean+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close %s: %w", clean, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, clean)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("store %s: %w", clean, err)
	}

	return s.URL(clean), nil
}

// Remove deletes a stored output. Removing a file that is already gone
// is not an error.
func (s *LocalStore) Remove(ctx context.Context, name string) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, clean)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", clean, err)
	}
	return nil
}

func (s *LocalStore) URL(name string) string {
	return s.baseURL + "/" + name
}

// Dir returns the directory outputs are written to.
func (s *LocalStore) Dir() string { return s.dir }

// cleanName accepts bare file names only. Anything that could traverse
// out of the store directory is rejected.
func cleanName(name string) (string, error) {
	cleaned := filepath.Clean(strings.TrimSpace(name))
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "", ErrInvalidName
	}
	if cleaned != filepath.Base(cleaned) {
		return "", ErrInvalidName
	}
	if strings.HasPrefix(cleaned, ".") {
		return "", ErrInvalidName
	}
	return cleaned, nil
}
