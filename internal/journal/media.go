// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

package journal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"klog/internal/logger"
)

// mediaDir is the attachment directory relative to the repository root.
const mediaDir = "media"

// AttachMediaFile copies an existing regular file into the repository's
// media directory and records it on the entry. A missing or non-regular
// source is a ValidationError so callers can report it and continue.
func (e *Entry) AttachMediaFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return invalidf("'%s' does not exist", path)
	}
	if !info.Mode().IsRegular() {
		return invalidf("'%s' is not a regular file", path)
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open media file %s: %w", path, err)
	}
	defer src.Close()

	return e.attachMedia(filepath.Base(path), src)
}

// AttachMediaBytes stores raw attachment data (email ingestion) under name
// in the media directory and records it on the entry.
func (e *Entry) AttachMediaBytes(name string, data []byte) error {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		return invalidf("attachment has no usable file name")
	}
	f, err := os.CreateTemp("", "klog-media-*")
	if err != nil {
		return fmt.Errorf("failed to stage attachment: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to stage attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to stage attachment: %w", err)
	}

	src, err := os.Open(tmp)
	if err != nil {
		return fmt.Errorf("failed to reopen staged attachment: %w", err)
	}
	defer src.Close()

	return e.attachMedia(name, src)
}

func (e *Entry) attachMedia(name string, src io.Reader) error {
	dir := filepath.Join(e.dir, mediaDir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	rel, err := freeMediaName(dir, name)
	if err != nil {
		return err
	}

	dst, err := os.Create(filepath.Join(e.dir, rel))
	if err != nil {
		return fmt.Errorf("failed to create media file %s: %w", rel, err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy media file %s: %w", rel, err)
	}

	e.Media = append(e.Media, rel)
	e.dirty = true
	logger.Debug("Attached media", "entry", e.Shortlog(), "media", rel)
	return nil
}

// freeMediaName picks the first unused name in dir, suffixing the stem with
// a counter on collision (photo.jpg, photo-1.jpg, ...).
func freeMediaName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]

	for n := 0; ; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, n, ext)
		}
		if _, err := os.Stat(filepath.Join(dir, candidate)); err != nil {
			if os.IsNotExist(err) {
				return filepath.Join(mediaDir, candidate), nil
			}
			return "", fmt.Errorf("failed to probe media path %s: %w", candidate, err)
		}
	}
}

// RemoveMedia detaches the media item at index and deletes its file. The
// file deletion is best-effort: the reference is gone either way and git
// history keeps the blob.
func (e *Entry) RemoveMedia(index int) error {
	if index < 0 || index >= len(e.Media) {
		return fmt.Errorf("media index %d out of range", index)
	}
	rel := e.Media[index]
	e.Media = append(e.Media[:index], e.Media[index+1:]...)
	e.dirty = true

	if err := os.Remove(filepath.Join(e.dir, rel)); err != nil && !os.IsNotExist(err) {
		logger.Warn("Could not delete media file", "media", rel, "error", err)
	}
	return nil
}
