// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bagfile

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bpowers/bigbag/internal/ondisk"
	"github.com/bpowers/bigbag/internal/zero"
)

const (
	Magic = 0xC5149BA9

	HeaderSize = 4 + 4 + 4 // magic + first_free + first_element
	PrefixSize = 4 + 4     // next + packed tag/len
	MinPadding = 4

	// MaxLen is the largest value that fits the 24-bit length field.
	MaxLen = (1 << 24) - 1

	DefaultCapacity = 64 * 1024

	headerMagicOff        = 0
	headerFirstFreeOff    = 4
	headerFirstElementOff = 8

	recordNextOff   = 0
	recordPackedOff = 4
)

// ErrCorrupt is returned when the file contents violate the format: a bad
// magic number, an offset that resolves outside the file, or a record with
// an unknown tag.
var ErrCorrupt = errors.New("bag file corrupted")

type State uint8

const (
	StateFree State = 0xF4
	StateUsed State = 0xDA
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "FREE"
	case StateUsed:
		return "USED"
	default:
		return fmt.Sprintf("State(%#x)", uint8(s))
	}
}

func pack(state State, length uint32) uint32 {
	return length<<8 | uint32(state)
}

func unpack(packed uint32) (State, uint32) {
	return State(packed & 0xff), packed >> 8
}

// Header is a view of the header at offset 0 of an arena.  Reads and writes
// go straight to the arena, so other mappers of a shared file observe them.
type Header struct {
	a *ondisk.Arena
}

func NewHeader(a *ondisk.Arena) (Header, error) {
	if _, err := a.Slice(0, HeaderSize); err != nil {
		return Header{}, fmt.Errorf("%w: file too short for header: %w", ErrCorrupt, err)
	}
	return Header{a: a}, nil
}

// field and setField can't fail once NewHeader has seen a full header.
func (h Header) field(off uint32) uint32 {
	v, err := h.a.Uint32(off)
	if err != nil {
		panic(fmt.Sprintf("invariant broken: header field %d: %v", off, err))
	}
	return v
}

func (h Header) setField(off, v uint32) {
	if err := h.a.PutUint32(off, v); err != nil {
		panic(fmt.Sprintf("invariant broken: header field %d: %v", off, err))
	}
}

func (h Header) Magic() uint32 {
	return h.field(headerMagicOff)
}

func (h Header) FirstFree() uint32 {
	return h.field(headerFirstFreeOff)
}

func (h Header) SetFirstFree(off uint32) {
	h.setField(headerFirstFreeOff, off)
}

func (h Header) FirstElement() uint32 {
	return h.field(headerFirstElementOff)
}

func (h Header) SetFirstElement(off uint32) {
	h.setField(headerFirstElementOff, off)
}

func (h Header) Validate() error {
	if magic := h.Magic(); magic != Magic {
		return fmt.Errorf("%w: bad magic number (%#x) -- not a bag file", ErrCorrupt, magic)
	}
	return nil
}

// CheckCapacity reports whether a file of capacity bytes can hold a header
// and a free block whose length fits the 24-bit length field.
func CheckCapacity(capacity int) error {
	const lo, hi = HeaderSize + PrefixSize, HeaderSize + PrefixSize + MaxLen
	if capacity < lo || capacity > hi {
		return fmt.Errorf("capacity %d out of range [%d, %d]", capacity, lo, hi)
	}
	return nil
}

// Init lays out an empty bag over the whole arena: the header, followed by a
// single FREE record spanning the rest of the capacity.
func Init(a *ondisk.Arena) (Header, error) {
	if err := CheckCapacity(a.Len()); err != nil {
		return Header{}, err
	}
	zero.Bytes(a.Bytes())

	h, err := NewHeader(a)
	if err != nil {
		return Header{}, err
	}
	h.setField(headerMagicOff, Magic)
	h.SetFirstElement(0)
	h.SetFirstFree(HeaderSize)

	if _, err := WriteFree(a, HeaderSize, uint32(a.Len()-HeaderSize-PrefixSize)); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Record is a validated reference to a record inside an arena.  buf covers
// exactly the prefix and the payload.
type Record struct {
	buf []byte
	off uint32
}

// Resolve returns the record at off.  An offset of 0 is the null sentinel
// and yields ok == false with no error; any offset that would place the
// record outside the arena, or inside the header, is ErrCorrupt.
func Resolve(a *ondisk.Arena, off uint32) (r Record, ok bool, err error) {
	if off == 0 {
		return Record{}, false, nil
	}
	if off < HeaderSize {
		return Record{}, false, fmt.Errorf("%w: record offset %d overlaps the header", ErrCorrupt, off)
	}
	if _, err := a.Slice(off, PrefixSize); err != nil {
		return Record{}, false, fmt.Errorf("%w: record prefix: %w", ErrCorrupt, err)
	}
	packed, err := a.Uint32(off + recordPackedOff)
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: record prefix: %w", ErrCorrupt, err)
	}
	state, length := unpack(packed)
	if state != StateFree && state != StateUsed {
		return Record{}, false, fmt.Errorf("%w: record at %d has unknown tag %s", ErrCorrupt, off, state)
	}
	buf, err := a.Slice(off, PrefixSize+length)
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: record at %d with len %d: %w", ErrCorrupt, off, length, err)
	}
	if state == StateUsed && (length == 0 || buf[len(buf)-1] != 0) {
		return Record{}, false, fmt.Errorf("%w: record at %d has an unterminated payload", ErrCorrupt, off)
	}
	return Record{buf: buf, off: off}, true, nil
}

// WriteFree writes a FREE record prefix at off covering length bytes.
func WriteFree(a *ondisk.Arena, off, length uint32) (Record, error) {
	if length > MaxLen {
		return Record{}, fmt.Errorf("invariant broken: free length %d too large", length)
	}
	buf, err := a.Slice(off, PrefixSize+length)
	if err != nil {
		return Record{}, fmt.Errorf("%w: free record at %d: %w", ErrCorrupt, off, err)
	}
	if err := writePrefix(a, off, pack(StateFree, length)); err != nil {
		return Record{}, err
	}
	return Record{buf: buf, off: off}, nil
}

// WriteUsed writes an unlinked USED record holding payload and its
// terminator at off.
func WriteUsed(a *ondisk.Arena, off uint32, payload []byte) (Record, error) {
	if len(payload)+1 > MaxLen {
		return Record{}, fmt.Errorf("invariant broken: payload length %d too large", len(payload))
	}
	length := uint32(len(payload)) + 1
	buf, err := a.Slice(off, PrefixSize+length)
	if err != nil {
		return Record{}, fmt.Errorf("%w: record at %d: %w", ErrCorrupt, off, err)
	}
	if err := writePrefix(a, off, pack(StateUsed, length)); err != nil {
		return Record{}, err
	}
	copy(buf[PrefixSize:], payload)
	buf[len(buf)-1] = 0
	return Record{buf: buf, off: off}, nil
}

// writePrefix writes an unlinked prefix (next = 0) at off.
func writePrefix(a *ondisk.Arena, off, packed uint32) error {
	if err := a.PutUint32(off+recordNextOff, 0); err != nil {
		return fmt.Errorf("%w: record at %d: %w", ErrCorrupt, off, err)
	}
	if err := a.PutUint32(off+recordPackedOff, packed); err != nil {
		return fmt.Errorf("%w: record at %d: %w", ErrCorrupt, off, err)
	}
	return nil
}

// Offset is the inverse of Resolve.
func (r Record) Offset() uint32 {
	return r.off
}

func (r Record) Next() uint32 {
	return binary.LittleEndian.Uint32(r.buf[recordNextOff:])
}

func (r Record) SetNext(off uint32) {
	binary.LittleEndian.PutUint32(r.buf[recordNextOff:], off)
}

func (r Record) State() State {
	state, _ := unpack(binary.LittleEndian.Uint32(r.buf[recordPackedOff:]))
	return state
}

func (r Record) SetState(state State) {
	binary.LittleEndian.PutUint32(r.buf[recordPackedOff:], pack(state, r.Len()))
}

// Len is the payload length, including the terminator for USED records.
func (r Record) Len() uint32 {
	_, length := unpack(binary.LittleEndian.Uint32(r.buf[recordPackedOff:]))
	return length
}

// Size is the number of bytes the record occupies, prefix included.
func (r Record) Size() uint32 {
	return PrefixSize + r.Len()
}

// Payload returns the stored string without its terminator.  The result
// aliases the mapped region.
func (r Record) Payload() []byte {
	if r.Len() == 0 {
		return nil
	}
	return r.buf[PrefixSize : len(r.buf)-1]
}

// PayloadWithTerminator returns the payload bytes exactly as stored.
func (r Record) PayloadWithTerminator() []byte {
	return r.buf[PrefixSize:]
}
