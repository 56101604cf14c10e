// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bagfile defines the on-disk layout of a bag file and the
// bounds-checked accessors used to read and write it.
//
// A bag file has a fixed size (64 KiB by default) and looks like:
//
//	┌───────────────────┐ 0
//	│ file header       │
//	├───────────────────┤ 12
//	│ records, USED or  │
//	│ abandoned FREE    │
//	│                   │
//	├───────────────────┤ first_free
//	│ free block        │
//	│                   │
//	│                   │
//	├───────────────────┤
//	│ lost padding      │
//	└───────────────────┘ capacity
//
// The header is three little-endian 32-bit words:
//
//	 0    1    2    3    4    5    6    7    8    9   10   11
//	+----+----+----+----+----+----+----+----+----+----+----+----+
//	| magic             | first_free        | first_element     |
//	+----+----+----+----+----+----+----+----+----+----+----+----+
//
// Records start with a fixed 8-byte prefix followed by `len` payload bytes,
// the last of which is a NUL terminator:
//
//	 0    1    2    3    4    5    6    7
//	+----+----+----+----+----+----+----+----+
//	| next              |tag | len          |
//	+----+----+----+----+----+----+----+----+
//	| payload...                       | 0  |
//	+----+----+----+----+----+----+----+----+
//
// `tag` is the low byte and `len` the high 24 bits of the second word, which
// limits a payload to 16 MiB.  Offsets are relative to the start of the file
// and 0 means "none"; the header occupies offset 0, so no record can live
// there.  USED records are threaded in sort order from first_element through
// `next`.  Deleted records are unlinked and tagged FREE, but their space is
// never handed out again.
package bagfile
