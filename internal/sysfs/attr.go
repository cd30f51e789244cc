// Package sysfs writes kernel attribute files.
//
// Attributes are opened for writing without O_CREATE: a missing attribute
// means the driver is not bound, and that must surface as an error instead
// of silently creating a regular file.
package sysfs

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// FS reads and writes attribute files on an afero filesystem.
type FS struct {
	fs afero.Fs
}

// New wraps fs.
func New(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// OS returns an FS backed by the host filesystem.
func OS() *FS {
	return New(afero.NewOsFs())
}

// Write replaces the contents of the attribute at path with value.
func (f *FS) Write(path, value string) error {
	file, err := f.fs.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := file.WriteString(value); err != nil {
		file.Close()
		return fmt.Errorf("write %q to %s: %w", value, path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists. Stat errors other than "not found"
// count as present, matching how the kernel reports permission problems on
// attributes that are really there.
func (f *FS) Exists(path string) bool {
	_, err := f.fs.Stat(path)
	return err == nil || !os.IsNotExist(err)
}
