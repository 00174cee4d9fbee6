//go:build !darwin && !linux && !windows

package git

import (
	"os"
	"time"
)

// No portable birth time here; the modification time stands in for it.
func createdTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
