// Package fileutils provides utility functions for handling files.
package fileutils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ubuntu/decorate"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// AtomicWriteMode writes data to a file atomically, with perm as permissions.
// If the file already exists, then it will be overwritten.
// Not atomic on Windows.
func AtomicWriteMode(path string, data []byte, perm os.FileMode) (err error) {
	defer decorate.OnError(&err, "could not write %q", path)

	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary file: %v", err)
	}
	defer func() {
		_ = tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove temporary file", "file", tmp.Name(), "error", err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("could not write to temporary file: %v", err)
	}

	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("could not set permissions on temporary file: %v", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temporary file: %v", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not rename temporary file: %v", err)
	}
	return nil
}

// ReadUTF8 returns the whole content of the file at path as UTF-8.
//
// A UTF-8 byte order mark is dropped, and UTF-16 content announced by a byte order mark is transcoded.
// Content without a byte order mark is returned as is.
func ReadUTF8(path string) (data []byte, err error) {
	defer decorate.OnError(&err, "could not read %q", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(transform.NewReader(f, unicode.BOMOverride(transform.Nop)))
}
