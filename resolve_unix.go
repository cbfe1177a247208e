//go:build unix

package tarspan

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// openRegular opens a path that resolved as a regular file, refusing to
// follow a symlink swapped in after resolution.
func openRegular(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|syscall.O_NOFOLLOW, 0)
	if err != nil {
		if errors.Is(err, syscall.ELOOP) {
			return nil, fmt.Errorf("%w: %s replaced by a symlink", ErrSourceChanged, path)
		}
		return nil, err
	}
	return f, nil
}
