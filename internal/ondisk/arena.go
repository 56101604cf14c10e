// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package ondisk

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfRange is returned for any access that would touch bytes outside
// the arena.
var ErrOutOfRange = errors.New("offset out of range")

// Arena is a bounds-checked view of a fixed-size region of bytes, usually
// an mmap'd file.  Every access is validated against the region length
// before it is performed.
type Arena struct {
	buf []byte
}

func NewArena(buf []byte) *Arena {
	return &Arena{buf: buf}
}

func (a *Arena) Len() int {
	return len(a.buf)
}

func (a *Arena) check(off, n uint64) error {
	if off > uint64(len(a.buf)) || n > uint64(len(a.buf))-off {
		return fmt.Errorf("%w: [%d, %d) (len %d)", ErrOutOfRange, off, off+n, len(a.buf))
	}
	return nil
}

func (a *Arena) Uint32(off uint32) (uint32, error) {
	if err := a.check(uint64(off), 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(a.buf[off : off+4]), nil
}

func (a *Arena) PutUint32(off uint32, v uint32) error {
	if err := a.check(uint64(off), 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(a.buf[off:off+4], v)
	return nil
}

// Slice returns the n bytes starting at off.  The result aliases the arena,
// so writes to it are writes to the underlying region.
func (a *Arena) Slice(off, n uint32) ([]byte, error) {
	if err := a.check(uint64(off), uint64(n)); err != nil {
		return nil, err
	}
	return a.buf[off : off+n : off+n], nil
}

// Bytes returns the whole region.
func (a *Arena) Bytes() []byte {
	return a.buf
}
