// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

// Package gitrepo wraps the git binary for the log repository's working
// clone: clone on first use, pull before editing, commit and push after.
package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"klog/internal/logger"
)

// Repo is a working clone of the log repository.
type Repo struct {
	// Dir is the root of the working tree.
	Dir string

	// Quiet suppresses git's output on the caller's terminal.
	Quiet bool
}

// Ensure opens the clone at dir, cloning url first if dir holds no
// repository yet. With quiet set, git's output is captured and only
// surfaces in error messages.
func Ensure(ctx context.Context, dir, url string, quiet bool) (*Repo, error) {
	r := &Repo{Dir: dir, Quiet: quiet}

	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		logger.Debug("Using existing clone", "dir", dir)
		return r, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to inspect %s: %w", dir, err)
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	logger.Info("Cloning log repository", "url", url, "dir", dir)
	if _, err := r.git(ctx, "", "clone", url, dir); err != nil {
		return nil, err
	}
	return r, nil
}

// Pull fast-forwards the working tree from the remote.
func (r *Repo) Pull(ctx context.Context) error {
	_, err := r.git(ctx, r.Dir, "pull", "--ff-only")
	return err
}

// Commit stages the whole working tree and commits it with message. It
// returns false when there was nothing to commit.
func (r *Repo) Commit(ctx context.Context, message string) (bool, error) {
	if _, err := r.git(ctx, r.Dir, "add", "-A"); err != nil {
		return false, err
	}

	// diff --cached --quiet exits 0 when the index matches HEAD.
	if _, err := r.git(ctx, r.Dir, "diff", "--cached", "--quiet"); err == nil {
		logger.Debug("Nothing staged, skipping commit")
		return false, nil
	}

	if _, err := r.git(ctx, r.Dir, "commit", "-m", message); err != nil {
		return false, err
	}
	return true, nil
}

// Push publishes local commits to the remote.
func (r *Repo) Push(ctx context.Context) error {
	_, err := r.git(ctx, r.Dir, "push")
	return err
}

// git runs one git command, streaming output to the terminal unless the
// repo is quiet, and wraps failures with the exit status.
func (r *Repo) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var out bytes.Buffer
	if r.Quiet {
		cmd.Stdout = &out
		cmd.Stderr = &out
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	cmdDesc := fmt.Sprintf("git %s", args[0])
	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
				exitCode = status.ExitStatus()
			}
		}
		detail := strings.TrimSpace(out.String())
		if detail != "" {
			return out.String(), fmt.Errorf("%s exited with status %d: %w\n%s", cmdDesc, exitCode, err, detail)
		}
		if exitCode != -1 {
			return out.String(), fmt.Errorf("%s exited with status %d: %w", cmdDesc, exitCode, err)
		}
		return out.String(), fmt.Errorf("%s failed: %w", cmdDesc, err)
	}
	return out.String(), nil
}
