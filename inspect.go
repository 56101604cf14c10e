// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bigbag

import (
	"bytes"
	"fmt"

	"github.com/dgryski/go-farm"

	"github.com/bpowers/bigbag/internal/bagfile"
)

// Stats describes how the bytes of a bag file are used.  The byte counts
// add up to Capacity.
type Stats struct {
	Capacity int `json:"capacity" yaml:"capacity"`
	// Records is the number of strings in the bag.
	Records int `json:"records" yaml:"records"`
	// HeaderBytes is the fixed file header.
	HeaderBytes int `json:"header_bytes" yaml:"header_bytes"`
	// ActiveBytes is held by the records in the bag, prefixes included.
	ActiveBytes int `json:"active_bytes" yaml:"active_bytes"`
	// AbandonedBytes is held by deleted records and is never reused.
	AbandonedBytes int `json:"abandoned_bytes" yaml:"abandoned_bytes"`
	// FreeBytes is the whole free block, prefix included.
	FreeBytes int `json:"free_bytes" yaml:"free_bytes"`
	// PaddingBytes is lost to the minimum padding charged per allocation.
	PaddingBytes int `json:"padding_bytes" yaml:"padding_bytes"`
	// MaxPayload is the longest string Add can still store, or -1.
	MaxPayload int `json:"max_payload" yaml:"max_payload"`
}

// Stats walks the bag and reports how its space is used.
func (b *Bag) Stats() (s Stats, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.acquire(false); err != nil {
		return Stats{}, err
	}
	defer b.release(&err)

	s.Capacity = b.arena.Len()
	s.HeaderBytes = bagfile.HeaderSize
	s.MaxPayload = -1

	allocated := s.Capacity - bagfile.HeaderSize
	free, ok, err := b.alloc.Free()
	if err != nil {
		return Stats{}, b.corrupt(err)
	}
	if ok {
		allocated = int(free.Offset()) - bagfile.HeaderSize
		s.FreeBytes = int(free.Size())
		s.PaddingBytes = s.Capacity - int(free.Offset()+free.Size())
		s.MaxPayload = int(free.Len()) - (bagfile.PrefixSize + bagfile.MinPadding + 1)
		if s.MaxPayload < 0 {
			s.MaxPayload = -1
		}
	}

	err = b.list.Traverse(func(r bagfile.Record) error {
		s.Records++
		s.ActiveBytes += int(r.Size())
		return nil
	})
	if err != nil {
		return Stats{}, b.corrupt(err)
	}
	s.AbandonedBytes = allocated - s.ActiveBytes
	return s, nil
}

// Verify checks the whole file for consistency: the header, the free block,
// and that the list is acyclic, sorted, made only of USED records, and lies
// entirely below the free block.  Problems are reported as ErrCorrupt.
func (b *Bag) Verify() (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.acquire(false); err != nil {
		return err
	}
	defer b.release(&err)

	if err := b.header.Validate(); err != nil {
		return b.corrupt(err)
	}
	limit := uint32(b.arena.Len())
	free, ok, err := b.alloc.Free()
	if err != nil {
		return b.corrupt(err)
	}
	if ok {
		limit = free.Offset()
	}

	var prev []byte
	first := true
	err = b.list.Traverse(func(r bagfile.Record) error {
		if r.Offset()+r.Size() > limit {
			return fmt.Errorf("%w: record at %d overlaps the free block at %d", ErrCorrupt, r.Offset(), limit)
		}
		if !first && bytes.Compare(prev, r.Payload()) > 0 {
			return fmt.Errorf("%w: record at %d is out of order", ErrCorrupt, r.Offset())
		}
		prev, first = r.Payload(), false
		return nil
	})
	if err != nil {
		return b.corrupt(err)
	}
	return nil
}

// Digest returns a fingerprint of the bag's contents in list order.  Two
// bags holding the same strings have the same digest no matter how their
// files are laid out or how many deletes they have seen.
func (b *Bag) Digest() (digest uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.acquire(false); err != nil {
		return 0, err
	}
	defer b.release(&err)

	var buf []byte
	err = b.list.Traverse(func(r bagfile.Record) error {
		buf = append(buf, r.PayloadWithTerminator()...)
		return nil
	})
	if err != nil {
		return 0, b.corrupt(err)
	}
	return farm.Fingerprint64(buf), nil
}
