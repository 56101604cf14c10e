// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package alloc implements the forward-only bump allocator that carves
// records out of the single trailing free block of a bag file.
//
// Space is never returned: records released by a delete stay where they
// are, and the free block only ever shrinks.
package alloc

import (
	"errors"
	"fmt"

	"github.com/bpowers/bigbag/internal/bagfile"
	"github.com/bpowers/bigbag/internal/ondisk"
)

var ErrOutOfSpace = errors.New("out of space")

// Required returns the number of bytes the free block must hold to carve a
// record for a payload of payloadLen bytes.
func Required(payloadLen int) uint64 {
	return bagfile.PrefixSize + bagfile.MinPadding + uint64(payloadLen) + 1
}

type Allocator struct {
	a *ondisk.Arena
	h bagfile.Header
}

func New(a *ondisk.Arena, h bagfile.Header) *Allocator {
	return &Allocator{a: a, h: h}
}

// Free resolves the current free block.  ok is false once the free block
// offset is 0.
func (al *Allocator) Free() (r bagfile.Record, ok bool, err error) {
	r, ok, err = bagfile.Resolve(al.a, al.h.FirstFree())
	if err != nil {
		return bagfile.Record{}, false, fmt.Errorf("free block: %w", err)
	}
	if ok && r.State() != bagfile.StateFree {
		return bagfile.Record{}, false, fmt.Errorf("%w: free block at %d is %s", bagfile.ErrCorrupt, r.Offset(), r.State())
	}
	return r, ok, nil
}

// Allocate carves an unlinked USED record holding payload from the front of
// the free block, and moves the free block to the byte right after it.
// Nothing is written when the free block is too small.
func (al *Allocator) Allocate(payload []byte) (bagfile.Record, error) {
	free, ok, err := al.Free()
	if err != nil {
		return bagfile.Record{}, err
	}
	required := Required(len(payload))
	if !ok || uint64(free.Len()) < required {
		return bagfile.Record{}, ErrOutOfSpace
	}

	off := free.Offset()
	oldLen := free.Len()
	newFree := off + bagfile.PrefixSize + uint32(len(payload)) + 1

	if _, err := bagfile.WriteFree(al.a, newFree, oldLen-uint32(required)); err != nil {
		return bagfile.Record{}, err
	}
	r, err := bagfile.WriteUsed(al.a, off, payload)
	if err != nil {
		return bagfile.Record{}, err
	}
	al.h.SetFirstFree(newFree)

	return r, nil
}
