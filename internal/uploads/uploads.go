// Package uploads writes complaint attachments to a local directory.
package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// maxExtLen bounds the extension kept from a client file name
const maxExtLen = 10

// Store saves files under generated unique names in one directory
type Store struct {
	dir string
}

// NewStore creates the directory if needed
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the storage directory
func (s *Store) Dir() string { return s.dir }

// Save writes every file and returns the stored names in order. On failure
// already written files are removed.
func (s *Store) Save(files []*multipart.FileHeader) ([]string, error) {
	names := make([]string, 0, len(files))
	for _, fh := range files {
		name, err := s.saveOne(fh)
		if err != nil {
			s.Remove(names)
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Remove deletes stored files, ignoring ones already gone
func (s *Store) Remove(names []string) {
	for _, name := range names {
		_ = os.Remove(filepath.Join(s.dir, name))
	}
}

func (s *Store) saveOne(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer src.Close()

	name := uuid.NewString() + SafeExt(fh.Filename)
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return name, nil
}

// SafeExt returns the lower-cased extension of name restricted to
// [a-z0-9], or "" when it has none usable. Stored names never contain
// the image list separator.
func SafeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
