//go:build !linux

package minisketch

import "os"

func adviseSequential(*os.File, int64) {}
