//go:build linux

package git

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// createdTime uses the statx birth time when the filesystem records one and
// falls back to the modification time. Zero means unknown.
func createdTime(path string) time.Time {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_STATX_SYNC_AS_STAT, unix.STATX_BTIME|unix.STATX_MTIME, &stx)
	if err == nil {
		if stx.Mask&unix.STATX_BTIME != 0 && stx.Btime.Sec > 0 {
			return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
		}
		if stx.Mask&unix.STATX_MTIME != 0 {
			return time.Unix(stx.Mtime.Sec, int64(stx.Mtime.Nsec))
		}
	}

	// statx is missing on old kernels
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
