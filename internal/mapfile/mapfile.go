// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mapfile opens a fixed-size file and maps it read-write into
// memory, either shared (writes reach the file and other mappers) or
// private (copy-on-write, writes are discarded at unmap).
package mapfile

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

var ErrSizeMismatch = errors.New("file size does not match capacity")

type File struct {
	f        *os.File
	data     []byte
	private  bool
	isClosed atomic.Bool
}

// Open opens path read-write, creating it if it doesn't exist.  Nothing is
// mapped until Map is called, so the caller can take a lock first.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("os.OpenFile(%s): %w", path, err)
	}
	return &File{f: f}, nil
}

// Map maps size bytes of the file.  An empty file is first truncated up to
// size, and wasEmpty reports that it happened; a non-empty file of any
// other size is ErrSizeMismatch.
func (m *File) Map(size int, private bool) (wasEmpty bool, err error) {
	if m.data != nil {
		return false, errors.New("invariant broken: file already mapped")
	}
	stats, err := m.f.Stat()
	if err != nil {
		return false, fmt.Errorf("f.Stat: %w", err)
	}
	switch {
	case stats.Size() == 0:
		wasEmpty = true
		if err := m.f.Truncate(int64(size)); err != nil {
			return false, fmt.Errorf("f.Truncate(%d): %w", size, err)
		}
	case stats.Size() != int64(size):
		return false, fmt.Errorf("%w: %s is %d bytes, expected %d", ErrSizeMismatch, m.f.Name(), stats.Size(), size)
	}

	flags := unix.MAP_SHARED
	if private {
		flags = unix.MAP_PRIVATE
	}
	data, err := unix.Mmap(int(m.f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return false, fmt.Errorf("mmap: %w", err)
	}
	// list walks hop around the file in key order, not file order
	if err := unix.Madvise(data, unix.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		return false, fmt.Errorf("madvise: %w", err)
	}

	m.data = data
	m.private = private
	return wasEmpty, nil
}

// Data returns the mapped region, or nil before Map.
func (m *File) Data() []byte {
	return m.data
}

// Lock takes an advisory flock on the file, blocking until it is granted.
func (m *File) Lock(exclusive bool) error {
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	if err := unix.Flock(int(m.f.Fd()), how); err != nil {
		if exclusive {
			return fmt.Errorf("cannot acquire exclusive lock: %w", err)
		}
		return fmt.Errorf("cannot acquire shared lock: %w", err)
	}
	return nil
}

func (m *File) Unlock() error {
	if err := unix.Flock(int(m.f.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("cannot release lock: %w", err)
	}
	return nil
}

// Sync flushes a shared mapping to the file.  Private mappings have nothing
// to flush.
func (m *File) Sync() error {
	if m.data == nil || m.private {
		return nil
	}
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("msync: %w", err)
	}
	return nil
}

// Close unmaps the region and closes the file.  Only the first call does
// anything.
func (m *File) Close() error {
	if m.isClosed.Swap(true) {
		return nil
	}
	var firstErr error
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			firstErr = fmt.Errorf("munmap: %w", err)
		}
		m.data = nil
	}
	if err := m.f.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("f.Close: %w", err)
	}
	return firstErr
}
