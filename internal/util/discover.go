package util

import (
	"os"
	"path/filepath"
)

// WalkUpForFile walks upward from start looking for a file named name,
// stopping at (and never entering) stopAt, and never crossing a device
// boundary (a bind mount or separate filesystem mounted under start).
// Returns the absolute path to the found file, or "" if none was found.
func WalkUpForFile(start, name, stopAt string) string {
	dir, err := RealPath(start)
	if err != nil {
		dir = filepath.Clean(start)
	}
	stopAt = filepath.Clean(stopAt)

	startDev, haveDev := deviceOf(dir)

	for {
		if dir == stopAt {
			return ""
		}
		candidate := filepath.Join(dir, name)
		if IsFile(candidate) {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "" // reached filesystem root
		}
		if haveDev {
			if parentDev, ok := deviceOf(parent); !ok || parentDev != startDev {
				return ""
			}
		}
		dir = parent
	}
}

// deviceOf returns the device ID backing path, used to detect mount
// boundaries while walking upward. Returns ok=false if it cannot be
// determined (e.g. the platform doesn't expose it), in which case callers
// should not enforce the mount-boundary rule.
func deviceOf(path string) (uint64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return statDev(info)
}
