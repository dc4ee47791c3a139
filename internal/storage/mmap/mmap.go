// Package mmap maps segment and hint files read-only into memory.
package mmap

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var ErrOutOfBounds = errors.New("read past the end of the mapped region")

type Region struct {
	file *os.File
	data []byte
}

// Open maps the file at path. A zero length file is valid and yields an
// empty region that can be grown later with Sync.
func Open(path string) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	// unix.Mmap returns EINVAL for a zero length mapping.
	if fi.Size() == 0 {
		return &Region{file: f}, nil
	}

	data, err := mapFile(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Region{file: f, data: data}, nil
}

func mapFile(f *os.File, size int64) ([]byte, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap %s: %w", f.Name(), err)
	}
	return data, nil
}

// Sync remaps the file if it has grown since the last mapping. Writers append
// through a separate handle, so readers call this before looking past the
// current end.
func (r *Region) Sync() error {
	stat, err := r.file.Stat()
	if err != nil {
		return err
	}

	currentSize := stat.Size()
	if currentSize <= int64(len(r.data)) {
		return nil
	}

	if len(r.data) > 0 {
		if err = unix.Munmap(r.data); err != nil {
			return fmt.Errorf("munmap failed: %w", err)
		}
	}

	data, err := mapFile(r.file, currentSize)
	if err != nil {
		r.data = nil
		return fmt.Errorf("remap failed, region is unusable: %w", err)
	}
	r.data = data

	return nil
}

// ReadAt returns a view of length bytes at offset. The view is only valid
// until the next Sync or Close.
func (r *Region) ReadAt(offset int64, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+int64(length) > int64(len(r.data)) {
		return nil, fmt.Errorf("%w: len=%d, req_off=%d, req_len=%d", ErrOutOfBounds, len(r.data), offset, length)
	}
	return r.data[offset : offset+int64(length)], nil
}

func (r *Region) Size() int64 {
	return int64(len(r.data))
}

// Close unmaps the region and closes the file handle.
func (r *Region) Close() error {
	var unmapErr error
	if len(r.data) > 0 {
		unmapErr = unix.Munmap(r.data)
		r.data = nil
	}
	return errors.Join(unmapErr, r.file.Close())
}
