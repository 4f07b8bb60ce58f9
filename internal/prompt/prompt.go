// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

// Package prompt implements line-free single-keystroke prompting. The
// terminal implementation puts the tty into raw mode for exactly one
// keystroke; flows depend only on the Prompter interface so they can be
// driven by a scripted fake in tests.
package prompt

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Prompter reads a single choice from the user.
type Prompter interface {
	// Choose displays label and returns one byte out of allowed. A carriage
	// return (or newline) selects def; any other byte outside allowed is
	// silently ignored and the read repeats.
	Choose(label string, allowed []byte, def byte) (byte, error)
}

// Terminal prompts on a real tty.
type Terminal struct {
	In  *os.File
	Out io.Writer
}

// New returns a Terminal prompter on stdin/stdout.
func New() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout}
}

func (t *Terminal) Choose(label string, allowed []byte, def byte) (byte, error) {
	fmt.Fprintf(t.Out, "%s [%s, default %c]: ", label, string(allowed), def)

	choice, err := t.readKey(allowed, def)
	if err != nil {
		fmt.Fprintln(t.Out)
		return 0, err
	}
	fmt.Fprintf(t.Out, "%c\n", choice)
	return choice, nil
}

// readKey reads keystrokes in raw mode until one matches. The terminal state
// is restored before returning, also on error.
func (t *Terminal) readKey(allowed []byte, def byte) (byte, error) {
	fd := int(t.In.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return 0, fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	buf := make([]byte, 1)
	for {
		if _, err := t.In.Read(buf); err != nil {
			return 0, fmt.Errorf("failed to read keystroke: %w", err)
		}
		switch c := buf[0]; {
		case c == '\r' || c == '\n':
			return def, nil
		case c == 0x03 || c == 0x04: // Ctrl-C / Ctrl-D
			return 0, fmt.Errorf("prompt interrupted")
		default:
			for _, a := range allowed {
				if c == a {
					return c, nil
				}
			}
			// Anything else is ignored, not echoed.
		}
	}
}

// YesNo asks a yes/no question via p and returns true for yes. def selects
// the answer taken on a bare carriage return.
func YesNo(p Prompter, label string, def bool) (bool, error) {
	d := byte('n')
	if def {
		d = 'y'
	}
	c, err := p.Choose(label, []byte{'y', 'n'}, d)
	if err != nil {
		return false, err
	}
	return c == 'y', nil
}
