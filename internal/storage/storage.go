// Package storage is the file store behind pattern file descriptors. Paths
// recorded on descriptors are relative to the configured root.
package storage

import (
	"fmt"
	"path"

	"github.com/spf13/afero"
)

type Store struct {
	fs afero.Fs
}

// New returns a store rooted at dir on the local disk.
func New(dir string) *Store {
	return &Store{fs: afero.NewBasePathFs(afero.NewOsFs(), dir)}
}

// NewMem returns an in-memory store. Used by tests.
func NewMem() *Store {
	return &Store{fs: afero.NewMemMapFs()}
}

func (s *Store) Exists(relPath string) bool {
	ok, err := afero.Exists(s.fs, relPath)
	return err == nil && ok
}

func (s *Store) Read(relPath string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, relPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", relPath, err)
	}
	return data, nil
}

func (s *Store) Size(relPath string) (int64, error) {
	info, err := s.fs.Stat(relPath)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", relPath, err)
	}
	return info.Size(), nil
}

func (s *Store) Write(relPath string, data []byte) error {
	if dir := path.Dir(relPath); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(s.fs, relPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	return nil
}
