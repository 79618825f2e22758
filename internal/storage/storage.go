package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrTooLarge    = errors.New("file exceeds maximum size")
)

// LocalStore keeps file artifacts flat under a single root directory. Stored
// paths are "<root>/<name>" so they can be written to file_path as is.
type LocalStore struct {
	fs   afero.Fs
	root string
}

func NewLocalStore(fs afero.Fs, root string) (*LocalStore, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &LocalStore{fs: fs, root: root}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Path(name string) string {
	return filepath.Join(s.root, name)
}

// Save writes r to <root>/name, replacing any existing artifact. With
// maxBytes > 0 a larger body fails with ErrTooLarge and nothing is left behind.
func (s *LocalStore) Save(name string, r io.Reader, maxBytes int64) (string, int64, error) {
	path := s.Path(name)
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", path, err)
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}

	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && maxBytes > 0 && n > maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = s.fs.Remove(path)
		return "", 0, fmt.Errorf("write %s: %w", path, err)
	}
	return path, n, nil
}

func (s *LocalStore) Open(name string) (afero.File, error) {
	return s.fs.Open(s.Path(name))
}

func (s *LocalStore) Exists(name string) (bool, error) {
	return afero.Exists(s.fs, s.Path(name))
}

// Rename moves an artifact; callers are expected to check for a collision first.
func (s *LocalStore) Rename(oldName, newName string) error {
	return s.fs.Rename(s.Path(oldName), s.Path(newName))
}

// Remove deletes an artifact. A missing artifact surfaces as fs.ErrNotExist.
func (s *LocalStore) Remove(name string) error {
	return s.fs.Remove(s.Path(name))
}

// SanitizeFilename reduces an untrusted name to a single path element made of
// letters, digits, dots, dashes, underscores and spaces.
func SanitizeFilename(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	clean := strings.TrimSpace(b.String())
	if clean == "" || clean == "." || clean == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}
