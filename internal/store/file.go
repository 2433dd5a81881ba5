package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// FileStore keeps each slot in <dir>/<name>.json.
type FileStore struct {
	dir string
}

// NewFile returns a FileStore rooted at dir. An empty dir means the working
// directory.
func NewFile(dir string) *FileStore {
	if dir == "" {
		dir = "."
	}
	return &FileStore{dir: dir}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, name string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "file store: read %s", name)
	}
	return data, true, nil
}

// Put implements Store. The value is written to a temp file and renamed into
// place so readers never see a partial slot.
func (s *FileStore) Put(_ context.Context, name string, value []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrapf(err, "file store: mkdir %s", s.dir)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "file store: create temp for %s", name)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(value); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "file store: write %s", name)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "file store: close %s", name)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return eris.Wrapf(err, "file store: rename %s", name)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
