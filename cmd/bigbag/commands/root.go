// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package commands implements the bigbag command line.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bpowers/bigbag"
	"github.com/bpowers/bigbag/internal/shell"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	test     bool
	noLock   bool
	capacity int
	logLevel string
}

// NewRootCmd builds the bigbag command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bigbag [-t] FILE",
		Short: "A sorted bag of strings kept in a memory-mapped file",
		Long: `bigbag opens FILE, creating it if needed, and reads commands from
standard input, one per line:

  a STRING   add STRING
  d STRING   delete one copy of STRING
  c STRING   check whether STRING is in the bag
  l          list the bag in sorted order

With -t the file is mapped privately: changes are visible while the
command runs but are never written back.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.open(cmd, args[0], opts.test)
			if err != nil {
				return err
			}
			runErr := shell.Run(cmd.InOrStdin(), cmd.OutOrStdout(), b)
			if err := b.Close(); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}

	cmd.Flags().BoolVarP(&opts.test, "test", "t", false, "map the file privately, discarding all changes")
	cmd.PersistentFlags().IntVar(&opts.capacity, "capacity", bigbag.DefaultCapacity, "size of the bag file in bytes")
	cmd.PersistentFlags().BoolVar(&opts.noLock, "no-lock", false, "don't take an advisory lock on the file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(newVerifyCmd(opts))
	cmd.AddCommand(newStatCmd(opts))
	cmd.AddCommand(newDigestCmd(opts))
	cmd.CompletionOptions.DisableDefaultCmd = true

	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", o.logLevel, err)
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})), nil
}

func (o *rootOptions) open(cmd *cobra.Command, path string, private bool) (*bigbag.Bag, error) {
	logger, err := o.logger(cmd)
	if err != nil {
		return nil, err
	}
	opts := []bigbag.Option{
		bigbag.WithLogger(logger),
		bigbag.WithCapacity(o.capacity),
	}
	if private {
		opts = append(opts, bigbag.WithPrivateMapping())
	}
	if o.noLock {
		opts = append(opts, bigbag.WithoutFileLock())
	}
	return bigbag.Open(path, opts...)
}

// openExisting opens a bag for inspection, refusing to create a new one.
func (o *rootOptions) openExisting(cmd *cobra.Command, path string) (*bigbag.Bag, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return o.open(cmd, path, false)
}
