//go:build linux

package pipeline

import "golang.org/x/sys/unix"

// fadviseSequential tells the kernel an item file is read front to back,
// so it can read ahead aggressively. Best-effort: errors are ignored.
func fadviseSequential(fd int, offset, length int64) {
	_ = unix.Fadvise(fd, offset, length, unix.FADV_SEQUENTIAL)
}
