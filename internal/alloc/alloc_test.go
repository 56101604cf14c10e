// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package alloc

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/bigbag/internal/bagfile"
	"github.com/bpowers/bigbag/internal/ondisk"
)

func newTestAllocator(t *testing.T, capacity int) (*Allocator, *ondisk.Arena, bagfile.Header) {
	a := ondisk.NewArena(make([]byte, capacity))
	h, err := bagfile.Init(a)
	require.NoError(t, err)
	return New(a, h), a, h
}

func freeLen(t *testing.T, al *Allocator) uint32 {
	free, ok, err := al.Free()
	require.NoError(t, err)
	require.True(t, ok)
	return free.Len()
}

func TestRequired(t *testing.T) {
	assert.Equal(t, uint64(8+4+6+1), Required(len("banana")))
	assert.Equal(t, uint64(13), Required(0))
}

func TestAllocate(t *testing.T) {
	al, a, h := newTestAllocator(t, bagfile.DefaultCapacity)
	initialFree := freeLen(t, al)
	require.Equal(t, uint32(bagfile.DefaultCapacity-bagfile.HeaderSize-bagfile.PrefixSize), initialFree)

	r, err := al.Allocate([]byte("banana"))
	require.NoError(t, err)
	assert.Equal(t, uint32(bagfile.HeaderSize), r.Offset())
	assert.Equal(t, bagfile.StateUsed, r.State())
	assert.Equal(t, uint32(0), r.Next())
	assert.Equal(t, "banana", string(r.Payload()))

	// the free block moves to the byte right after the carved record
	assert.Equal(t, uint32(bagfile.HeaderSize+bagfile.PrefixSize+7), h.FirstFree())
	assert.Equal(t, initialFree-uint32(Required(6)), freeLen(t, al))

	r2, err := al.Allocate([]byte("apple"))
	require.NoError(t, err)
	assert.Equal(t, r.Offset()+r.Size(), r2.Offset())

	// the first record was not disturbed
	got, ok, err := bagfile.Resolve(a, r.Offset())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "banana", string(got.Payload()))
}

func TestAllocate_ExactFit(t *testing.T) {
	const capacity = 64
	al, _, h := newTestAllocator(t, capacity)
	k := freeLen(t, al)
	require.Equal(t, uint32(capacity-bagfile.HeaderSize-bagfile.PrefixSize), k)

	// a payload needing k+1 bytes does not fit, and nothing changes
	tooBig := strings.Repeat("x", int(k)-12)
	require.Equal(t, uint64(k)+1, Required(len(tooBig)))
	_, err := al.Allocate([]byte(tooBig))
	require.True(t, errors.Is(err, ErrOutOfSpace))
	assert.Equal(t, uint32(bagfile.HeaderSize), h.FirstFree())
	assert.Equal(t, k, freeLen(t, al))

	// exactly k bytes fits and leaves an empty free block
	exact := tooBig[1:]
	require.Equal(t, uint64(k), Required(len(exact)))
	_, err = al.Allocate([]byte(exact))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), freeLen(t, al))

	free, _, err := al.Free()
	require.NoError(t, err)
	// the padding is lost at the tail of the file
	assert.Equal(t, uint32(capacity-bagfile.MinPadding), free.Offset()+free.Size())

	_, err = al.Allocate([]byte("a"))
	require.True(t, errors.Is(err, ErrOutOfSpace))
}

func TestAllocate_Exhaust(t *testing.T) {
	al, _, h := newTestAllocator(t, 256)
	n := 0
	for {
		_, err := al.Allocate([]byte("word"))
		if errors.Is(err, ErrOutOfSpace) {
			break
		}
		require.NoError(t, err)
		n++
	}
	// 236 free bytes, 17 bytes per allocation
	assert.Equal(t, 13, n)
	assert.True(t, h.FirstFree() < 256)
}

func TestAllocate_Corrupt(t *testing.T) {
	al, _, h := newTestAllocator(t, 64)

	h.SetFirstFree(1000)
	_, err := al.Allocate([]byte("x"))
	assert.True(t, errors.Is(err, bagfile.ErrCorrupt))

	// the free block must be FREE
	h.SetFirstFree(bagfile.HeaderSize)
	r, ok, err := al.Free()
	require.NoError(t, err)
	require.True(t, ok)
	r.SetState(bagfile.StateUsed)
	_, err = al.Allocate([]byte("x"))
	assert.True(t, errors.Is(err, bagfile.ErrCorrupt))

	// no free block at all
	h.SetFirstFree(0)
	_, err = al.Allocate([]byte("x"))
	assert.True(t, errors.Is(err, ErrOutOfSpace))
}
