// Copyright 2026 The bigbag Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package shell implements the line-oriented command interpreter used by
// the bigbag command.  Each input line is a one-letter command, optionally
// followed by a separator and a string:
//
//	a STRING   add STRING
//	d STRING   delete one copy of STRING
//	c STRING   check whether STRING is present
//	l          list every string in order
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/bpowers/bigbag"
)

// Store is the subset of *bigbag.Bag the interpreter drives.
type Store interface {
	Add(s string) error
	Delete(s string) error
	Check(s string) (bool, error)
	List() ([]string, error)
}

const maxLine = 1 << 24

// Run reads commands from r until EOF, writing results to w.  Running out
// of space, deleting a missing string and invalid strings are reported on w
// and the loop continues; any other error from store ends it.
func Run(r io.Reader, w io.Writer, store Store) error {
	out := bufio.NewWriter(w)
	defer out.Flush()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := exec(out, store, line); err != nil {
			return err
		}
		// flush per command so interactive use sees output right away
		if err := out.Flush(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func exec(w io.Writer, store Store, line []byte) error {
	// the argument starts after the command letter and one separator byte,
	// whatever that byte is.
	var s string
	if len(line) > 2 {
		s = string(line[2:])
	}

	switch line[0] {
	case 'a':
		err := store.Add(s)
		switch {
		case err == nil:
			fmt.Fprintf(w, "added %s\n", s)
		case errors.Is(err, bigbag.ErrOutOfSpace):
			fmt.Fprintln(w, "out of space")
		case errors.Is(err, bigbag.ErrInvalidPayload):
			fmt.Fprintln(w, err)
		default:
			return err
		}
	case 'd':
		err := store.Delete(s)
		switch {
		case err == nil:
			fmt.Fprintf(w, "deleted %s\n", s)
		case errors.Is(err, bigbag.ErrNotFound):
			fmt.Fprintf(w, "no %s\n", s)
		default:
			return err
		}
	case 'c':
		found, err := store.Check(s)
		if err != nil {
			return err
		}
		if found {
			fmt.Fprintln(w, "found")
		} else {
			fmt.Fprintln(w, "not found")
		}
	case 'l':
		list, err := store.List()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(w, "empty bag")
		}
		for _, e := range list {
			fmt.Fprintln(w, e)
		}
	default:
		usage(w, line[0])
	}
	return nil
}

func usage(w io.Writer, c byte) {
	fmt.Fprintf(w, "%c not used correctly\n", c)
	fmt.Fprint(w, "possible commands:\n"+
		"a string_to_add\n"+
		"d string_to_delete\n"+
		"c string_to_check\n"+
		"l\n")
}
