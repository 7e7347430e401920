package validation

import (
	"fmt"
	"os"
	"path/filepath"
)

// FreeSpace returns the bytes available to the current user on the
// filesystem holding path. A missing path is resolved to its nearest
// existing parent.
func FreeSpace(path string) (int64, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", path, err)
	}
	for {
		if _, err := os.Stat(abs); err == nil {
			break
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return 0, fmt.Errorf("no existing parent for %s", path)
		}
		abs = parent
	}

	_, free, err := getDiskSpace(abs)
	if err != nil {
		return 0, fmt.Errorf("statfs %s: %w", abs, err)
	}
	return free, nil
}
