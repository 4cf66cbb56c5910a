package tempfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Store manages the upload scratch directory. Files saved here are
// transient: they exist only between receipt and the forward to the
// analysis service. Names carry a nanosecond timestamp so concurrent
// uploads never collide; each file is owned by exactly one request.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Save writes the upload to a timestamp-named file, keeping the original
// extension, and returns its full path.
func (s *Store) Save(r io.Reader, originalName string) (string, error) {
	name := strconv.FormatInt(time.Now().UnixNano(), 10) + filepath.Ext(filepath.Base(originalName))
	path := filepath.Join(s.root, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create transient file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write transient file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close transient file: %w", err)
	}

	return path, nil
}

func (s *Store) Remove(path string) error {
	return os.Remove(path)
}

// Resolve maps a caller-supplied filename to a path under the root. The
// name is reduced to its base component first, so traversal input like
// "../../etc/passwd" resolves to "passwd" under the root and misses.
// Returns os.ErrNotExist when no such file is stored.
func (s *Store) Resolve(name string) (string, error) {
	safeName := filepath.Base(name)
	if safeName == "." || safeName == string(filepath.Separator) {
		return "", os.ErrNotExist
	}

	path := filepath.Join(s.root, safeName)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", os.ErrNotExist
	}

	return path, nil
}
