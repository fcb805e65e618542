//go:build linux

package minisketch

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile sizes a file that is about to be mapped for writing and
// reserves its blocks, so a full disk fails here instead of with SIGBUS.
func fallocateFile(file *os.File, size int64) error {
	fd := int(file.Fd())
	// NFS and some tmpfs kernels reject fallocate; ftruncate still sizes the file.
	_ = unix.Fallocate(fd, 0, 0, size)
	return unix.Ftruncate(fd, size)
}
