package pipeline

import (
	"os"

	"github.com/gofrs/flock"
)

// fileSystem abstracts the filesystem operations of a run.
type fileSystem interface {
	Stat(name string) (os.FileInfo, error)
	MkdirTemp(dir, pattern string) (string, error)
	RemoveAll(path string) error
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// tryLocker is the subset of *flock.Flock used for the output lock.
type tryLocker interface {
	TryLock() (bool, error)
	Unlock() error
}

// Compile-time interface verification.
var (
	_ fileSystem = osFileSystem{}
	_ tryLocker  = (*flock.Flock)(nil)
)

// osFileSystem implements fileSystem using the os package.
type osFileSystem struct{}

func (osFileSystem) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func (osFileSystem) MkdirTemp(dir, pattern string) (string, error) { return os.MkdirTemp(dir, pattern) }

func (osFileSystem) RemoveAll(path string) error { return os.RemoveAll(path) }

func (osFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) // #nosec G304 -- path supplied by the user
}

func (osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func newFileLock(path string) tryLocker { return flock.New(path) }
