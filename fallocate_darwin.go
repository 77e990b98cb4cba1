//go:build darwin

package streambloom

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for a filter blob with F_PREALLOCATE,
// then sets the file length. Preallocation failure is not fatal.
func fallocateFile(file *os.File, size int64) error {
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Length:  size,
	}
	_ = unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &fst)
	return unix.Ftruncate(int(file.Fd()), size)
}
