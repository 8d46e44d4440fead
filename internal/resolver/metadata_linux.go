//go:build linux

package resolver

import (
	"io/fs"
	"syscall"
	"time"
)

// createdTime approximates the creation time with the inode change time,
// the closest thing Linux exposes through os.Stat.
func createdTime(info fs.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return info.ModTime()
}
