// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify FILE",
		Short: "Check a bag file for corruption",
		Long: `Walk the whole bag and check that the header, the free block and the
sorted list are consistent.  Exits non-zero if they are not.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.openExisting(cmd, args[0])
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.Verify(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}
}

func newStatCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "stat FILE",
		Short: "Show how the space in a bag file is used",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			b, err := opts.openExisting(cmd, args[0])
			if err != nil {
				return err
			}
			defer b.Close()

			stats, err := b.Stats()
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), format, stats)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table|json|yaml)")
	return cmd
}

func newDigestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "digest FILE",
		Short: "Print a fingerprint of a bag's contents",
		Long: `Print a 64-bit fingerprint of the strings in the bag.  Bags holding the
same strings print the same digest regardless of their history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.openExisting(cmd, args[0])
			if err != nil {
				return err
			}
			defer b.Close()

			digest, err := b.Digest()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%016x\n", digest)
			return nil
		},
	}
}
