// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package reclist maintains the sorted, singly-linked list of USED records
// that starts at the header's first_element.
package reclist

import (
	"bytes"
	"fmt"

	"github.com/bpowers/bigbag/internal/bagfile"
	"github.com/bpowers/bigbag/internal/bitset"
	"github.com/bpowers/bigbag/internal/ondisk"
	"github.com/bpowers/bigbag/internal/unsafestring"
)

// List is not safe for concurrent use.
type List struct {
	a *ondisk.Arena
	h bagfile.Header
	// offsets visited by the current walk, to turn a `next` cycle into
	// ErrCorrupt instead of an endless loop.
	seen *bitset.Bitset
}

func New(a *ondisk.Arena, h bagfile.Header) *List {
	return &List{
		a:    a,
		h:    h,
		seen: bitset.New(int64(a.Len())),
	}
}

// walk calls fn with each record in list order along with its predecessor
// (hasBack is false for the head).  Returning false from fn stops the walk.
func (l *List) walk(fn func(back bagfile.Record, hasBack bool, front bagfile.Record) bool) error {
	l.seen.Reset()

	var back bagfile.Record
	hasBack := false
	off := l.h.FirstElement()
	for {
		front, ok, err := bagfile.Resolve(l.a, off)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if front.State() != bagfile.StateUsed {
			return fmt.Errorf("%w: list reaches %s record at %d", bagfile.ErrCorrupt, front.State(), off)
		}
		if l.seen.TestAndSet(int64(off)) {
			return fmt.Errorf("%w: list cycles back to %d", bagfile.ErrCorrupt, off)
		}
		if !fn(back, hasBack, front) {
			return nil
		}
		back, hasBack = front, true
		off = front.Next()
	}
}

func (l *List) link(back bagfile.Record, hasBack bool, r bagfile.Record) {
	if hasBack {
		back.SetNext(r.Offset())
	} else {
		l.h.SetFirstElement(r.Offset())
	}
}

// Position is where a new record belongs in the list.
type Position struct {
	back    bagfile.Record
	hasBack bool
	next    uint32
}

// Locate walks the whole path to where a record holding payload belongs:
// before the first record whose payload sorts at or after it, so equal
// payloads end up newest first.  Nothing is written, and a corrupt list is
// reported before the caller has changed anything.
func (l *List) Locate(payload []byte) (Position, error) {
	var pos Position
	err := l.walk(func(back bagfile.Record, hasBack bool, front bagfile.Record) bool {
		if bytes.Compare(payload, front.Payload()) <= 0 {
			pos = Position{back: back, hasBack: hasBack, next: front.Offset()}
			return false
		}
		pos = Position{back: front, hasBack: true}
		return true
	})
	if err != nil {
		return Position{}, err
	}
	return pos, nil
}

// Link splices the unlinked record r in at pos, which must come from a
// Locate with no list changes since.
func (l *List) Link(pos Position, r bagfile.Record) {
	r.SetNext(pos.next)
	l.link(pos.back, pos.hasBack, r)
}

// Find returns the first record whose payload is exactly s.
func (l *List) Find(s string) (found bagfile.Record, ok bool, err error) {
	needle := unsafestring.ToBytes(s)
	err = l.walk(func(_ bagfile.Record, _ bool, front bagfile.Record) bool {
		if bytes.Equal(front.Payload(), needle) {
			found, ok = front, true
			return false
		}
		return true
	})
	if err != nil {
		return bagfile.Record{}, false, err
	}
	return found, ok, nil
}

// Remove unlinks the first record whose payload is exactly s and tags it
// FREE.  Its space is not given back to the allocator.
func (l *List) Remove(s string) (bool, error) {
	needle := unsafestring.ToBytes(s)
	removed := false
	err := l.walk(func(back bagfile.Record, hasBack bool, front bagfile.Record) bool {
		if !bytes.Equal(front.Payload(), needle) {
			return true
		}
		if hasBack {
			back.SetNext(front.Next())
		} else {
			l.h.SetFirstElement(front.Next())
		}
		front.SetState(bagfile.StateFree)
		front.SetNext(0)
		removed = true
		return false
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// Traverse calls fn on each record, front to back.  A non-nil error from
// fn stops the traversal and is returned.
func (l *List) Traverse(fn func(r bagfile.Record) error) error {
	var fnErr error
	err := l.walk(func(_ bagfile.Record, _ bool, front bagfile.Record) bool {
		fnErr = fn(front)
		return fnErr == nil
	})
	if err != nil {
		return err
	}
	return fnErr
}
