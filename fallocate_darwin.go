//go:build darwin

package minisketch

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile sizes a file that is about to be mapped for writing.
// F_PREALLOCATE reserves blocks without changing the size.
func fallocateFile(file *os.File, size int64) error {
	_ = unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Length:  size,
	})
	return unix.Ftruncate(int(file.Fd()), size)
}
