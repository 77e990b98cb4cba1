//go:build !linux && !darwin

package streambloom

import "os"

// fallocateFile sets the blob file length. No blocks are reserved on this
// platform.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
