// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bagfile

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/bigbag/internal/ondisk"
)

func TestInit(t *testing.T) {
	buf := make([]byte, DefaultCapacity)
	// garbage from a previous life should be wiped
	buf[100] = 0xff
	a := ondisk.NewArena(buf)

	h, err := Init(a)
	require.NoError(t, err)
	require.NoError(t, h.Validate())
	assert.Equal(t, uint32(Magic), h.Magic())
	assert.Equal(t, uint32(HeaderSize), h.FirstFree())
	assert.Equal(t, uint32(0), h.FirstElement())
	assert.Equal(t, byte(0), buf[100])

	// bit-exact header
	assert.Equal(t, uint32(0xC5149BA9), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(12), binary.LittleEndian.Uint32(buf[4:8]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[8:12]))

	free, ok, err := Resolve(a, h.FirstFree())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StateFree, free.State())
	assert.Equal(t, uint32(DefaultCapacity-HeaderSize-PrefixSize), free.Len())
	assert.Equal(t, uint32(DefaultCapacity-HeaderSize), free.Size())
	// tag in the low byte, length in the high 24 bits
	assert.Equal(t, byte(0xF4), buf[HeaderSize+4])
	assert.Equal(t, uint32(DefaultCapacity-HeaderSize-PrefixSize), binary.LittleEndian.Uint32(buf[HeaderSize+4:])>>8)
}

func TestInit_CapacityErrors(t *testing.T) {
	_, err := Init(ondisk.NewArena(make([]byte, HeaderSize+PrefixSize-1)))
	assert.Error(t, err)

	h, err := Init(ondisk.NewArena(make([]byte, HeaderSize+PrefixSize)))
	require.NoError(t, err)
	assert.Equal(t, uint32(HeaderSize), h.FirstFree())
}

func TestHeader_Validate(t *testing.T) {
	a := ondisk.NewArena(make([]byte, 64))
	h, err := NewHeader(a)
	require.NoError(t, err)
	require.Equal(t, uint32(0), h.Magic())

	err = h.Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCorrupt))

	_, err = NewHeader(ondisk.NewArena(make([]byte, HeaderSize-1)))
	require.True(t, errors.Is(err, ErrCorrupt))
}

func TestHeader_Fields(t *testing.T) {
	a := ondisk.NewArena(make([]byte, 64))
	h, err := Init(a)
	require.NoError(t, err)

	h.SetFirstFree(40)
	h.SetFirstElement(20)
	assert.Equal(t, uint32(40), h.FirstFree())
	assert.Equal(t, uint32(20), h.FirstElement())
	assert.Equal(t, uint32(40), binary.LittleEndian.Uint32(a.Bytes()[4:]))
	assert.Equal(t, uint32(20), binary.LittleEndian.Uint32(a.Bytes()[8:]))

	// a second view over the same bytes sees the same values
	h2, err := NewHeader(a)
	require.NoError(t, err)
	assert.Equal(t, uint32(40), h2.FirstFree())
	assert.Equal(t, uint32(20), h2.FirstElement())
}

func TestResolve(t *testing.T) {
	const capacity = 128
	a := ondisk.NewArena(make([]byte, capacity))
	_, err := Init(a)
	require.NoError(t, err)

	_, ok, err := Resolve(a, 0)
	require.NoError(t, err)
	require.False(t, ok)

	for _, off := range []uint32{1, HeaderSize - 1, capacity, capacity - PrefixSize + 1, 1 << 31} {
		_, _, err := Resolve(a, off)
		assert.Truef(t, errors.Is(err, ErrCorrupt), "offset %d: %v", off, err)
	}

	r, err := WriteUsed(a, 20, []byte("banana"))
	require.NoError(t, err)
	assert.Equal(t, uint32(20), r.Offset())
	assert.Equal(t, uint32(7), r.Len())
	assert.Equal(t, uint32(PrefixSize+7), r.Size())

	got, ok, err := Resolve(a, 20)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, r.Offset(), got.Offset())
	assert.Equal(t, StateUsed, got.State())
	assert.Equal(t, "banana", string(got.Payload()))
	assert.Equal(t, "banana\x00", string(got.PayloadWithTerminator()))
	assert.Equal(t, uint32(0), got.Next())

	got.SetNext(64)
	assert.Equal(t, uint32(64), r.Next())
	got.SetState(StateFree)
	assert.Equal(t, StateFree, r.State())
	assert.Equal(t, uint32(7), r.Len())
}

func TestResolve_Corrupt(t *testing.T) {
	const capacity = 64
	buf := make([]byte, capacity)
	a := ondisk.NewArena(buf)
	_, err := Init(a)
	require.NoError(t, err)

	// unknown tag
	binary.LittleEndian.PutUint32(buf[20+4:], pack(State(0x11), 4))
	_, _, err = Resolve(a, 20)
	assert.True(t, errors.Is(err, ErrCorrupt))

	// length runs past the end of the arena
	binary.LittleEndian.PutUint32(buf[20+4:], pack(StateUsed, capacity))
	_, _, err = Resolve(a, 20)
	assert.True(t, errors.Is(err, ErrCorrupt))

	// USED record with no terminator
	_, err = WriteUsed(a, 20, []byte("abc"))
	require.NoError(t, err)
	buf[20+PrefixSize+3] = 'd'
	_, _, err = Resolve(a, 20)
	assert.True(t, errors.Is(err, ErrCorrupt))

	// zero-length USED record
	binary.LittleEndian.PutUint32(buf[20+4:], pack(StateUsed, 0))
	_, _, err = Resolve(a, 20)
	assert.True(t, errors.Is(err, ErrCorrupt))

	// writing past the end is rejected too
	_, err = WriteUsed(a, capacity-PrefixSize, []byte("x"))
	assert.True(t, errors.Is(err, ErrCorrupt))
	_, err = WriteFree(a, capacity-PrefixSize, 1)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "FREE", StateFree.String())
	assert.Equal(t, "USED", StateUsed.String())
	assert.Equal(t, "State(0x11)", State(0x11).String())
}

func TestCheckCapacity(t *testing.T) {
	assert.NoError(t, CheckCapacity(DefaultCapacity))
	assert.NoError(t, CheckCapacity(HeaderSize+PrefixSize))
	assert.NoError(t, CheckCapacity(HeaderSize+PrefixSize+MaxLen))
	assert.Error(t, CheckCapacity(HeaderSize+PrefixSize-1))
	assert.Error(t, CheckCapacity(HeaderSize+PrefixSize+MaxLen+1))
	assert.Error(t, CheckCapacity(-1))
}
