//go:build !linux

package resolver

import (
	"io/fs"
	"time"
)

// createdTime falls back to the modification time on platforms where
// os.FileInfo carries no portable creation or change time.
func createdTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
