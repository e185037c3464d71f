// Package fileio is the narrow file system surface the rest of lesbin goes
// through. Nothing outside this package calls the os file API directly.
package fileio

import (
	"io"
	"os"
	"time"
)

// File is an open file addressed by absolute offsets.
type File interface {
	io.ReaderAt
	io.WriterAt
	Size() (int64, error)
	Truncate(size int64) error
	Sync() error
	Close() error
	Name() string
}

// Info is the subset of file metadata lesbin cares about.
type Info struct {
	Size    int64
	ModTime time.Time
	Mode    os.FileMode
	IsDir   bool
}

// FS opens and replaces files.
type FS interface {
	Open(path string) (File, error)
	OpenWritable(path string) (File, error)
	CreateTemp(dir, pattern string) (File, error)
	Rename(oldPath, newPath string) error
	Remove(path string) error
	Stat(path string) (Info, error)
	Chmod(path string, mode os.FileMode) error
	Writable(path string) bool
}
