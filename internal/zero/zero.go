// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package zero provides functions to zero slices of specific types.
package zero

// Bytes zeros b in place, which for an mmap'd region means zeroing the
// backing file pages.
func Bytes(b []byte) {
	for i := 0; i < len(b); i++ {
		b[i] = 0
	}
}

func U64(b []uint64) {
	for i := 0; i < len(b); i++ {
		b[i] = 0
	}
}

// IsZero reports whether every byte of b is 0.
func IsZero(b []byte) bool {
	for i := 0; i < len(b); i++ {
		if b[i] != 0 {
			return false
		}
	}
	return true
}
