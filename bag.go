// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bigbag

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bpowers/bigbag/internal/alloc"
	"github.com/bpowers/bigbag/internal/bagfile"
	"github.com/bpowers/bigbag/internal/mapfile"
	"github.com/bpowers/bigbag/internal/ondisk"
	"github.com/bpowers/bigbag/internal/reclist"
	"github.com/bpowers/bigbag/internal/unsafestring"
	"github.com/bpowers/bigbag/internal/zero"
)

// Bag is a sorted multiset of strings stored in a memory-mapped file.  It is
// safe for concurrent use by multiple goroutines.  Unless WithoutFileLock is
// given, operations on a shared mapping also hold an advisory flock on the
// file, so several processes can share one bag.
type Bag struct {
	mu       sync.Mutex
	file     *mapfile.File
	arena    *ondisk.Arena
	header   bagfile.Header
	alloc    *alloc.Allocator
	list     *reclist.List
	logger   *slog.Logger
	fileLock bool
	closed   bool
}

// Open opens the bag stored at path, creating and initializing it if the
// file doesn't exist or is empty.
func Open(path string, opts ...Option) (*Bag, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if err := bagfile.CheckCapacity(options.capacity); err != nil {
		return nil, fmt.Errorf("bigbag.Open: %w", err)
	}

	f, err := mapfile.Open(path)
	if err != nil {
		return nil, ioErr(err)
	}
	b := &Bag{
		file:     f,
		logger:   options.logger.With("path", path),
		fileLock: options.fileLock && !options.private,
	}
	if err := b.open(options.capacity, options.private); err != nil {
		_ = f.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bag) open(capacity int, private bool) (err error) {
	if err := b.acquire(true); err != nil {
		return err
	}
	defer b.release(&err)

	wasEmpty, err := b.file.Map(capacity, private)
	if errors.Is(err, mapfile.ErrSizeMismatch) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	} else if err != nil {
		return ioErr(err)
	}

	b.arena = ondisk.NewArena(b.file.Data())
	if b.header, err = bagfile.NewHeader(b.arena); err != nil {
		return err
	}
	// a private open of a new file grows it without ever writing anything
	// back, so a file that is entirely zero is as good as an empty one.
	if wasEmpty || zero.IsZero(b.arena.Bytes()) {
		if b.header, err = bagfile.Init(b.arena); err != nil {
			return err
		}
		b.logger.Debug("initialized bag", "capacity", capacity, "private", private)
	} else if err := b.header.Validate(); err != nil {
		return b.corrupt(err)
	}

	b.alloc = alloc.New(b.arena, b.header)
	b.list = reclist.New(b.arena, b.header)
	if _, _, err := b.alloc.Free(); err != nil {
		return b.corrupt(err)
	}
	b.logger.Debug("opened bag", "first_free", b.header.FirstFree(), "first_element", b.header.FirstElement())
	return nil
}

// acquire must be called with b.mu held.
func (b *Bag) acquire(exclusive bool) error {
	if b.closed {
		return ErrClosed
	}
	if b.fileLock {
		if err := b.file.Lock(exclusive); err != nil {
			return ioErr(err)
		}
	}
	return nil
}

func (b *Bag) release(errp *error) {
	if !b.fileLock {
		return
	}
	if err := b.file.Unlock(); err != nil && *errp == nil {
		*errp = ioErr(err)
	}
}

func (b *Bag) corrupt(err error) error {
	b.logger.Error("bag corrupted", "error", err)
	return err
}

func checkPayload(s string) error {
	switch {
	case len(s) == 0:
		return fmt.Errorf("%w: empty string", ErrInvalidPayload)
	case len(s)+1 > bagfile.MaxLen:
		return fmt.Errorf("%w: length %d exceeds %d", ErrInvalidPayload, len(s), bagfile.MaxLen-1)
	case strings.IndexByte(s, 0) >= 0:
		return fmt.Errorf("%w: contains a NUL byte", ErrInvalidPayload)
	}
	return nil
}

// Add stores s.  Adding a string that is already present stores a second
// copy; among equal strings the most recently added is first in list order,
// and is the one Delete removes.  ErrOutOfSpace is returned when the free
// block can't fit the record, in which case the bag is unchanged.
func (b *Bag) Add(s string) (err error) {
	if err := checkPayload(s); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.acquire(true); err != nil {
		return err
	}
	defer b.release(&err)

	payload := unsafestring.ToBytes(s)
	// find the splice point first, so a corrupt list fails the add before
	// any space is taken.
	pos, err := b.list.Locate(payload)
	if err != nil {
		return b.corrupt(err)
	}
	r, err := b.alloc.Allocate(payload)
	if errors.Is(err, ErrOutOfSpace) {
		b.logger.Debug("out of space", "len", len(s), "required", alloc.Required(len(s)))
		return err
	} else if err != nil {
		return b.corrupt(err)
	}
	b.list.Link(pos, r)
	b.logger.Debug("added", "offset", r.Offset(), "len", len(s))
	return nil
}

// Delete removes one copy of s, returning ErrNotFound if there is none.  The
// space it occupied is not reused.
func (b *Bag) Delete(s string) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.acquire(true); err != nil {
		return err
	}
	defer b.release(&err)

	removed, err := b.list.Remove(s)
	if err != nil {
		return b.corrupt(err)
	}
	if !removed {
		return ErrNotFound
	}
	b.logger.Debug("deleted", "len", len(s))
	return nil
}

// Check reports whether at least one copy of s is in the bag.
func (b *Bag) Check(s string) (found bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.acquire(false); err != nil {
		return false, err
	}
	defer b.release(&err)

	_, found, err = b.list.Find(s)
	if err != nil {
		return false, b.corrupt(err)
	}
	return found, nil
}

// List returns every string in the bag in sorted order.  The result is empty
// for an empty bag.
func (b *Bag) List() (out []string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.acquire(false); err != nil {
		return nil, err
	}
	defer b.release(&err)

	err = b.list.Traverse(func(r bagfile.Record) error {
		out = append(out, string(r.Payload()))
		return nil
	})
	if err != nil {
		return nil, b.corrupt(err)
	}
	return out, nil
}

// Sync flushes a shared mapping to disk.  It does nothing for a private
// mapping.
func (b *Bag) Sync() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if err := b.file.Sync(); err != nil {
		return ioErr(err)
	}
	return nil
}

// Close unmaps and closes the file.  Subsequent calls return nil; every
// other method returns ErrClosed.
func (b *Bag) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.logger.Debug("closing bag")
	if err := b.file.Close(); err != nil {
		return ioErr(err)
	}
	return nil
}
