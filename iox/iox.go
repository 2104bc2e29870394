// Package iox provides the input-file read path: a memory-mapped read
// where the platform supports it, falling back to a plain read when
// mapping fails (an empty file, a pipe/socket masquerading as a path, a
// filesystem that rejects mmap).
package iox

import (
	"io"
	"os"
	"syscall"

	apperrors "github.com/batchresize/engine/errors"
)

// MappedFile is a memory-mapped (or, on fallback, heap-read) view of an
// input file's bytes. Close must be called exactly once to release the
// mapping.
type MappedFile struct {
	data   []byte
	mapped bool
}

// Bytes returns the file's contents. Valid until Close.
func (m *MappedFile) Bytes() []byte { return m.data }

// Close releases the mapping if one was established; a no-op on the
// read-through fallback path.
func (m *MappedFile) Close() error {
	if !m.mapped {
		return nil
	}
	data := m.data
	m.data = nil
	m.mapped = false
	return syscall.Munmap(data)
}

// Open maps path into memory for reading. If the mapping cannot be
// established (zero-length file, non-regular file, mmap not permitted by
// the filesystem), it transparently falls back to reading the file into a
// heap buffer instead of failing the caller.
func Open(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryFileNotFound, "iox.Open", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryFileNotFound, "iox.Open", err)
	}
	size := info.Size()

	if size <= 0 || !info.Mode().IsRegular() {
		return readThrough(f)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return readThrough(f)
	}
	return &MappedFile{data: data, mapped: true}, nil
}

// readThrough seeks f back to offset 0 and reads the whole file into a heap
// buffer.
func readThrough(f *os.File) (*MappedFile, error) {
	if _, err := f.Seek(0, 0); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryFileNotFound, "iox.Open.readThrough", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryFileNotFound, "iox.Open.readThrough", err)
	}
	return &MappedFile{data: data, mapped: false}, nil
}
