// Package content reads stored file bytes by locator.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound indicates no content exists at the given locator.
var ErrNotFound = errors.New("content: not found")

// Store reads resource bytes.
type Store interface {
	// Open returns a reader over the content at locator plus its size in
	// bytes. The caller closes the reader.
	Open(ctx context.Context, locator string) (io.ReadCloser, int64, error)
}

// DiskStore serves content from a directory on local disk.
type DiskStore struct {
	root string
}

// NewDiskStore returns a DiskStore rooted at dir.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{root: dir}
}

// Open implements Store. Locators are single path elements; anything that
// would escape the root is rejected as not found.
func (s *DiskStore) Open(_ context.Context, locator string) (io.ReadCloser, int64, error) {
	if locator == "" || strings.ContainsAny(locator, `/\`) || locator != filepath.Base(locator) {
		return nil, 0, fmt.Errorf("%w: %q", ErrNotFound, locator)
	}

	path := filepath.Join(s.root, locator)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %q", ErrNotFound, locator)
		}
		return nil, 0, fmt.Errorf("content: open %q: %w", locator, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("content: stat %q: %w", locator, err)
	}
	return f, info.Size(), nil
}
