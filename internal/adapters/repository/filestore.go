package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/okian/devbasics/pkg/metrics"
)

const (
	defaultDirPerm  = 0o700
	defaultFilePerm = 0o600
	slotExt         = ".json"
)

// FileStore keeps one file per slot under a base directory. Writes go to a
// temp file that is renamed over the slot, so a crash mid-write leaves the
// previous value in place.
type FileStore struct {
	mu       sync.Mutex
	dir      string
	filePerm os.FileMode
}

// NewFileStore creates the base directory if needed.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	s := &FileStore{dir: dir, filePerm: defaultFilePerm}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(s.dir, defaultDirPerm); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return s, nil
}

// Dir returns the base directory.
func (s *FileStore) Dir() string { return s.dir }

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %q: %w", key, err)
	}
	return data, nil
}

// Set implements Store.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeAtomic(path, value); err != nil {
		metrics.RecordSlotWrite("set", "error")
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	metrics.RecordSlotWrite("set", "ok")
	return nil
}

// Remove implements Store.
func (s *FileStore) Remove(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		metrics.RecordSlotWrite("remove", "error")
		return fmt.Errorf("remove slot %q: %w", key, err)
	}
	metrics.RecordSlotWrite("remove", "ok")
	return nil
}

func (s *FileStore) writeAtomic(path string, value []byte) (err error) {
	tmp, err := os.CreateTemp(s.dir, ".slot-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), s.filePerm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// path maps a slot key onto a file name. Characters outside [A-Za-z0-9._-]
// become underscores, so "devbasics:user" is stored as devbasics_user.json.
func (s *FileStore) path(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrInvalidKey
	}
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if strings.Trim(name, ".") == "" {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, name+slotExt), nil
}

var _ Store = (*FileStore)(nil)
