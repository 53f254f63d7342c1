// Package fileutil provides filesystem helpers for robust file operations.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrEmptyPath indicates an empty file path was provided.
var ErrEmptyPath = errors.New("path is empty")

// WriteAtomic writes data to path atomically with the provided permissions.
// The data goes to a temp file in the target directory first, is synced,
// and only then renamed over the destination. Readers never observe a
// partially written file.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		_ = tmp.Close()
		if !renamed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	renamed = true

	// Best effort directory sync for rename durability.
	if dirFile, dirErr := os.Open(dir); dirErr == nil { //nolint:gosec // G304: dir is derived from validated path
		_ = dirFile.Sync()
		_ = dirFile.Close()
	}

	return nil
}
