package align

import (
	"errors"
	"io/fs"
	"os"
)

// fileOps abstracts the two filesystem operations the adjuster performs.
type fileOps interface {
	Rename(oldpath, newpath string) error
	Remove(name string) error
}

// Compile-time interface verification.
var _ fileOps = osFileOps{}

// osFileOps implements fileOps using the os package.
type osFileOps struct{}

func (osFileOps) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// Remove ignores missing files: candidates are removed whether or not the
// filter got as far as creating them.
func (osFileOps) Remove(name string) error {
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
