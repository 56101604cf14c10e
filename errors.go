// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bigbag

import (
	"errors"
	"fmt"

	"github.com/bpowers/bigbag/internal/alloc"
	"github.com/bpowers/bigbag/internal/bagfile"
)

var (
	// ErrCorrupt means the file doesn't hold a valid bag: a bad magic number,
	// a wrong size, or an offset that resolves outside the file.  The Bag
	// should not be used for further mutations.
	ErrCorrupt = bagfile.ErrCorrupt
	// ErrOutOfSpace means the free block is too small for the record.  The
	// bag is unchanged and remains usable.
	ErrOutOfSpace = alloc.ErrOutOfSpace
	// ErrNotFound is returned by Delete when no record matches.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPayload is returned by Add for strings that can't be stored:
	// empty strings, strings containing NUL, or strings too long for the
	// 24-bit length field.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrIO wraps failures from the operating system: open, truncate, mmap,
	// msync and flock.
	ErrIO = errors.New("i/o failure")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("bag is closed")
)

func ioErr(err error) error {
	return fmt.Errorf("%w: %w", ErrIO, err)
}
