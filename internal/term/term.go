// Copyright 2021 The age Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package term reads a passphrase from the controlling terminal without
// echoing it, for sealing and unsealing the vault's persistent store.
package term

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/term"
)

// clearLine clears the current line on the terminal, or opens a new line if
// terminal escape codes don't work.
func clearLine(out io.Writer) {
	const (
		CUI = "\033["   // Control Sequence Introducer
		CPL = CUI + "F" // Cursor Previous Line
		EL  = CUI + "K" // Erase in Line
	)

	// First, open a new line, which is guaranteed to work everywhere. Then, try
	// to erase the line above with escape codes.
	fmt.Fprintf(out, "\r\n"+CPL+EL)
}

// WithTerminal runs f with the terminal input and output files, if available.
// WithTerminal falls back to stdin only when stdin is itself a terminal.
func WithTerminal(f func(in, out *os.File) error) error {
	if runtime.GOOS == "windows" {
		in, err := os.OpenFile("CONIN$", os.O_RDWR, 0)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.OpenFile("CONOUT$", os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		defer out.Close()
		return f(in, out)
	} else if tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0); err == nil {
		defer tty.Close()
		return f(tty, tty)
	} else if IsTerminal(os.Stdin) {
		return f(os.Stdin, os.Stdin)
	} else {
		return fmt.Errorf("standard input is not a terminal, and /dev/tty is not available: %v", err)
	}
}

// ReadSecret reads a value from the terminal with no echo. The prompt is
// ephemeral: it is cleared from the terminal once the read completes.
func ReadSecret(prompt string) (s []byte, err error) {
	err = WithTerminal(func(in, out *os.File) error {
		fmt.Fprintf(out, "%s ", prompt)
		defer clearLine(out)
		s, err = term.ReadPassword(int(in.Fd()))
		return err
	})
	return
}

// ReadSecretConfirm reads a value twice and requires the two reads to
// match, for prompts that seal something a typo would make unrecoverable
// (a fresh vault's seal passphrase, with no existing ciphertext to recover
// it from). It returns an error rather than looping, leaving retry policy
// to the caller.
func ReadSecretConfirm(prompt, confirmPrompt string) ([]byte, error) {
	s, err := ReadSecret(prompt)
	if err != nil {
		return nil, err
	}
	c, err := ReadSecret(confirmPrompt)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(s, c) {
		return nil, fmt.Errorf("term: the two entries did not match")
	}
	return s, nil
}

func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
