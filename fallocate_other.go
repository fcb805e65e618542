//go:build !linux && !darwin

package minisketch

import "os"

func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
