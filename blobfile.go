package streambloom

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"

	streamerrors "github.com/tamirms/streambloom/errors"
)

// ReadFrom reads r to end-of-stream and deserializes the result. The format
// is not partially decodable, so the whole blob is buffered first.
func ReadFrom(r io.Reader) (*Filter, error) {
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return Deserialize(blob)
}

// Open loads a serialized filter from path.
// It opens the file, memory-maps it, decodes, and releases the mapping.
func Open(path string) (*Filter, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open filter file: %w", err)
	}
	defer file.Close()
	return OpenFile(file)
}

// OpenFile loads a serialized filter by memory-mapping f.
// The caller is responsible for closing f. The returned filter owns a copy
// of the bit array, so the mapping does not outlive this call.
func OpenFile(f *os.File) (*Filter, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat filter file: %w", err)
	}
	if stat.Size() < HeaderSize {
		return nil, streamerrors.ErrTruncatedBlob
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap filter file: %w", err)
	}
	filter, err := Deserialize([]byte(mm))
	if unmapErr := mm.Unmap(); unmapErr != nil {
		return nil, errors.Join(err, fmt.Errorf("mmap unmap failed: %w", unmapErr))
	}
	return filter, err
}

// WriteFile writes the serialized filter to path, replacing any existing
// file. Disk space is reserved up front and the blob is encoded straight
// into a writable mapping of the file.
func (f *Filter) WriteFile(path string) (err error) {
	size := f.SerializedSize()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create filter file: %w", err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	// Pre-allocate disk blocks to prevent SIGBUS on disk full
	if err := fallocateFile(file, int64(size)); err != nil {
		return fmt.Errorf("failed to allocate disk space: %w", err)
	}

	mm, err := mmap.MapRegion(file, size, mmap.RDWR, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to mmap file: %w", err)
	}
	prefaultRegion(mm)

	f.encodeTo(mm)

	// Flush dirty pages to file (ensures writes visible before unmap)
	if err := mm.Flush(); err != nil {
		primaryErr := fmt.Errorf("mmap flush failed: %w", err)
		return errors.Join(primaryErr, mm.Unmap())
	}
	if err := mm.Unmap(); err != nil {
		return fmt.Errorf("mmap unmap failed: %w", err)
	}
	return nil
}
