// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

// Package logger provides the shared structured logger. Log records go to a
// JSON file under the XDG state directory and, unless the process is driving
// a full-screen terminal UI, are mirrored to stderr.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var defaultLogger *slog.Logger

// logFilePath determines the path of the application log file based on the
// XDG state directory spec.
func logFilePath() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateDir, "klog", "app.log"), nil
}

// Init configures the default logger. It must be called once at startup.
// When quiet is true (a terminal UI owns the screen), records go to the log
// file only; otherwise they are mirrored to stderr.
func Init(quiet bool) {
	var writers []io.Writer

	path, err := logFilePath()
	if err == nil {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0750); mkErr == nil {
			file, openErr := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
			if openErr == nil {
				writers = append(writers, file)
			} else {
				fmt.Fprintf(os.Stderr, "Error opening log file %s: %v. File logging disabled.\n", path, openErr)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error creating log directory for %s: %v. File logging disabled.\n", path, mkErr)
		}
	}

	if !quiet || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	var w io.Writer
	if len(writers) == 1 {
		w = writers[0]
	} else {
		w = io.MultiWriter(writers...)
	}

	level := slog.LevelInfo
	if os.Getenv("KLOG_DEBUG") != "" {
		level = slog.LevelDebug
	}
	defaultLogger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func get() *slog.Logger {
	if defaultLogger == nil {
		Init(false)
	}
	return defaultLogger
}

// Debug logs a debug message with structured key-value attributes.
func Debug(msg string, args ...any) { get().Debug(msg, args...) }

// Info logs an informational message with structured key-value attributes.
func Info(msg string, args ...any) { get().Info(msg, args...) }

// Warn logs a warning message with structured key-value attributes.
func Warn(msg string, args ...any) { get().Warn(msg, args...) }

// Error logs an error message with structured key-value attributes.
func Error(msg string, args ...any) { get().Error(msg, args...) }

// Errorf logs a formatted error message.
func Errorf(format string, v ...any) { get().Error(fmt.Sprintf(format, v...)) }
