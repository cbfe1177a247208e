//go:build !unix

package tarspan

import (
	"fmt"
	"io/fs"
	"os"
)

// openRegular opens a path that resolved as a regular file, refusing to
// follow a symlink swapped in after resolution.
func openRegular(path string) (*os.File, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return nil, fmt.Errorf("%w: %s replaced by a symlink", ErrSourceChanged, path)
	}
	return os.Open(path)
}
