// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bigbag stores a sorted bag (multiset) of strings inside a single
// fixed-size, memory-mapped file.
//
// Records refer to each other by file-relative offsets rather than pointers,
// so a bag file can be reopened by any process at any mapping address.  New
// records are carved from one trailing free block by a bump allocator;
// deleting a record unlinks it from the sorted list but never returns its
// space, so a bag that sees many deletes eventually reports ErrOutOfSpace
// even if it holds few strings.
//
//	b, err := bigbag.Open("words.bag")
//	if err != nil {
//		return err
//	}
//	defer b.Close()
//	if err := b.Add("banana"); errors.Is(err, bigbag.ErrOutOfSpace) {
//		// the bag is full
//	}
//	words, err := b.List()
//
// See internal/bagfile for the on-disk format.
package bigbag
