package repository

import "os"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithFileMode sets the permission bits of slot files.
func WithFileMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.filePerm = mode
		}
	}
}
