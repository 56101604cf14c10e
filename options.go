// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bigbag

import (
	"io"
	"log/slog"

	"github.com/bpowers/bigbag/internal/bagfile"
)

// DefaultCapacity is the size of a bag file unless WithCapacity says otherwise.
const DefaultCapacity = bagfile.DefaultCapacity

// Option configures Open.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	capacity int
	private  bool
	fileLock bool
}

func defaultOptions() options {
	return options{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		capacity: DefaultCapacity,
		fileLock: true,
	}
}

// WithLogger sets an optional logger for the bag to report opens, mutations
// and corruption to.  If not provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithCapacity sets the file size.  Existing files must have exactly this
// size.  Mostly useful for tests that want to run out of space quickly.
func WithCapacity(capacity int) Option {
	return func(opts *options) {
		opts.capacity = capacity
	}
}

// WithPrivateMapping maps the file copy-on-write: the bag behaves normally
// for the life of the *Bag, but nothing is written back to the file.
func WithPrivateMapping() Option {
	return func(opts *options) {
		opts.private = true
	}
}

// WithoutFileLock skips the advisory flock normally held around each
// operation on a shared mapping.  Only safe if a single process ever has the
// file open.
func WithoutFileLock() Option {
	return func(opts *options) {
		opts.fileLock = false
	}
}
