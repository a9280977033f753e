// Package storage saves exported remixes to a local directory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxCopies bounds how many "name (n).ext" variants Save tries.
const maxCopies = 1000

// FileStore is an output directory for exported remixes. Files land flat in
// the directory, appear only once fully written, and never replace an
// existing file: a second remix-1-Film_Noir.png is saved as
// "remix-1-Film_Noir (2).png".
type FileStore struct {
	dir string
}

// NewFileStore opens dir as an output directory, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create output directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

// Save writes data as name and returns the path it ended up at.
func (s *FileStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base, err := fileName(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".remix-*.part")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("storage: write %s: %w", base, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", base, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return "", fmt.Errorf("storage: chmod %s: %w", base, err)
	}

	// Link fails with ErrExist instead of replacing, which makes claiming a
	// name and publishing the file a single step.
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 1; n <= maxCopies; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		path := filepath.Join(s.dir, candidate)
		err := os.Link(tmpPath, path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("storage: save %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("storage: %s: too many existing copies", base)
}

// fileName reduces name to a plain file name inside the directory.
func fileName(name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	base := filepath.Base(filepath.FromSlash(name))
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("storage: invalid file name %q", name)
	}
	if strings.HasPrefix(base, ".") {
		return "", fmt.Errorf("storage: hidden file name %q", name)
	}
	return base, nil
}
