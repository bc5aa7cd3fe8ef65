package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Compile-time check that FileSystem implements Cache.
var _ Cache = (*FileSystem)(nil)

// cacheExt is appended to every content id to form the cache file name.
const cacheExt = ".jpg"

// FileSystem implements Cache using a flat local directory.
// Files are stored at <basePath>/<contentID>.jpg.
type FileSystem struct {
	basePath string
}

// NewFileSystem creates a new FileSystem cache rooted at basePath.
func NewFileSystem(basePath string) *FileSystem {
	return &FileSystem{basePath: basePath}
}

// Dir returns the cache directory.
func (fs *FileSystem) Dir() string {
	return fs.basePath
}

// entryPath returns the file path for a content id. The id must be a single
// path element.
func (fs *FileSystem) entryPath(contentID string) (string, error) {
	if contentID == "" || contentID == "." || contentID == ".." ||
		strings.ContainsAny(contentID, `/\`) || strings.ContainsRune(contentID, 0) {
		return "", fmt.Errorf("invalid content id %q", contentID)
	}
	return filepath.Join(fs.basePath, contentID+cacheExt), nil
}

// Put writes data to disk using atomic write (temp file + rename), so a
// concurrent reader sees either the old entry or the new one, never a
// partial file.
func (fs *FileSystem) Put(contentID string, data []byte) error {
	dst, err := fs.entryPath(contentID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(fs.basePath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", fs.basePath, err)
	}

	// Write to a temp file in the same directory for atomic rename.
	tmp, err := os.CreateTemp(fs.basePath, ".put-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return fmt.Errorf("writing data: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", dst, err)
	}

	// Rename succeeded; prevent deferred cleanup from removing the final file.
	tmpPath = ""

	return nil
}

// Get reads the cached file. A missing file is reported as a miss.
func (fs *FileSystem) Get(contentID string) ([]byte, bool, error) {
	path, err := fs.entryPath(contentID)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, true, nil
}

// Delete removes the cached file.
// It is idempotent: deleting a non-existent entry returns no error.
func (fs *FileSystem) Delete(contentID string) error {
	path, err := fs.entryPath(contentID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing file %s: %w", path, err)
	}
	return nil
}
