//go:build windows

package git

import (
	"os"
	"syscall"
	"time"
)

func createdTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}

	if attrs, ok := info.Sys().(*syscall.Win32FileAttributeData); ok && attrs.CreationTime.Nanoseconds() > 0 {
		return time.Unix(0, attrs.CreationTime.Nanoseconds())
	}
	return info.ModTime()
}
