//go:build linux

package streambloom

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for a filter blob so writes through the
// mapping cannot SIGBUS on a full disk, then sets the file length.
func fallocateFile(file *os.File, size int64) error {
	fd := int(file.Fd())
	// Filesystems without fallocate (NFS, tmpfs on old kernels) still get
	// the right length from ftruncate.
	_ = unix.Fallocate(fd, 0, 0, size)
	return unix.Ftruncate(fd, size)
}
