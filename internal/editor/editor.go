// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

// Package editor shells out to the user's text editor on a temporary file
// and hands the edited buffer back.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"klog/internal/logger"
)

// fallbackCommand is used when no editor is configured in the environment.
const fallbackCommand = "vi"

// Editor turns a text buffer into an edited one.
type Editor interface {
	Edit(initial string) (string, error)
}

// External runs a real editor process attached to the caller's terminal.
// Command may contain arguments ("code -w"); it is split on whitespace.
type External struct {
	Command string
}

// FromEnv builds an External from $EDITOR, falling back to vi.
func FromEnv() *External {
	cmd := os.Getenv("EDITOR")
	if cmd == "" {
		cmd = fallbackCommand
	}
	return &External{Command: cmd}
}

// Edit writes initial to a fresh temporary file, runs the editor on it
// synchronously and returns the resulting content. The temporary file is
// removed regardless of outcome.
func (e *External) Edit(initial string) (string, error) {
	tmp, err := os.CreateTemp("", "klog-*.klog")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary edit file: %w", err)
	}
	path := tmp.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			logger.Warn("Could not remove temporary edit file", "path", path, "error", rmErr)
		}
	}()

	if _, err := tmp.WriteString(initial); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temporary edit file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to flush temporary edit file: %w", err)
	}

	parts := strings.Fields(e.Command)
	if len(parts) == 0 {
		return "", fmt.Errorf("no editor command configured")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logger.Debug("Launching editor", "command", e.Command, "file", path)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor '%s' failed: %w", e.Command, err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}
	return string(edited), nil
}
