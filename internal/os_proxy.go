package internal

import (
	"io/fs"
	"os"
	"path/filepath"
)

// OsProxy is the subset of os functions the file selection and download
// handoff rely on. Tests replace it to avoid touching the disk.
type OsProxy interface {
	Stat(name string) (os.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	MkdirAll(path string, perm os.FileMode) error
	Abs(path string) (string, error)
	DirFS(dir string) fs.FS
}

// RealOS is the default implementation that delegates to the real os package.
type RealOS struct{}

func (RealOS) Stat(name string) (os.FileInfo, error)        { return os.Stat(name) }           //nolint:revive
func (RealOS) ReadFile(name string) ([]byte, error)         { return os.ReadFile(name) }       //nolint:revive
func (RealOS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) } //nolint:revive
func (RealOS) Abs(path string) (string, error)              { return filepath.Abs(path) }      //nolint:revive
func (RealOS) DirFS(dir string) fs.FS                       { return os.DirFS(dir) }           //nolint:revive
