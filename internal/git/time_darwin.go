//go:build darwin

package git

import (
	"time"

	"golang.org/x/sys/unix"
)

func createdTime(path string) time.Time {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return time.Time{}
	}
	if st.Birthtimespec.Sec > 0 {
		return time.Unix(st.Birthtimespec.Unix())
	}
	return time.Unix(st.Mtimespec.Unix())
}
