// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitset

import (
	"github.com/bpowers/bigbag/internal/zero"
)

// Bitset is an in-memory bitmap that is conceptually similar to []bool, but more memory efficient.
type Bitset struct {
	bits   []uint64
	length int64
}

func getOffsets(off int64) (sliceOff int64, bitOff uint64) {
	sliceOff = off / 64
	bitOff = uint64(off) % 64
	return
}

// TestAndSet sets the bit at position `off` and reports whether it was
// already set.  Out-of-range positions are never set.
func (b *Bitset) TestAndSet(off int64) bool {
	if off < 0 || off >= b.length {
		return false
	}
	sliceOff, bitOff := getOffsets(off)
	u64 := &b.bits[sliceOff]
	wasSet := *u64&(1<<bitOff) != 0
	*u64 |= 1 << bitOff
	return wasSet
}

// Reset clears every bit, keeping the allocation.
func (b *Bitset) Reset() {
	zero.U64(b.bits)
}

// New returns a new in-memory bitset where you can set and test for individual bits.
func New(length int64) *Bitset {
	sliceLen := (length + 63) / 64
	return &Bitset{
		bits:   make([]uint64, sliceLen),
		length: length,
	}
}
