//go:build linux

package minisketch

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints that the first size bytes of file will be read
// once, front to back.
func adviseSequential(file *os.File, size int64) {
	_ = unix.Fadvise(int(file.Fd()), 0, size, unix.FADV_SEQUENTIAL)
}
