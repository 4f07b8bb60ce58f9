// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

// Package journal implements the kitchen log model: dated plain-text entries
// with media attachments, stored inside a git-backed working tree.
//
// The entry file format is a header block, a blank line and a free-form body:
//
//	BEGIN: 2018-05-17
//	END: None
//	TOPIC: Grill session
//	APPENDIX: None
//	MEDIA: media/grill.jpg
//
//	We fired up the grill...
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// noneValue marks an unset header value in the file format.
const noneValue = "None"

// ValidationError reports a malformed entry text. It is the recoverable
// error class: interactive flows show it and let the user re-edit.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Entry is one log entry. Begin is the day the entry is filed under; a zero
// End means a single-day entry. Media holds paths relative to the repository
// root.
type Entry struct {
	Begin    time.Time
	End      time.Time
	Topic    string
	Appendix string
	Media    []string
	Content  string

	dir     string // repository working tree root
	path    string // file path relative to dir, empty until first save
	dirty   bool
	removed bool
}

// Day normalizes t to midnight UTC so dates compare by calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseOptional(value string) string {
	if value == "" || strings.EqualFold(value, noneValue) {
		return ""
	}
	return value
}

func formatOptional(value string) string {
	if value == "" {
		return noneValue
	}
	return value
}

func parseDate(value string) (time.Time, error) {
	if parseOptional(value) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, invalidf("invalid date '%s', expected YYYY-MM-DD", value)
	}
	return Day(t), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return noneValue
	}
	return t.Format(dateLayout)
}

// Parse reads an entry from its textual form. In strict mode, used for
// buffers coming back from the editor or the web UI, BEGIN and TOPIC must
// be set and unknown header keys are rejected; lenient mode tolerates both
// when loading files from disk.
func Parse(text string, strict bool) (*Entry, error) {
	text = strings.TrimLeft(text, "\n")
	head, body, found := strings.Cut(text, "\n\n")
	if !found {
		return nil, invalidf("entry needs a header block separated from the body by a blank line")
	}

	e := &Entry{Content: body}
	for _, line := range strings.Split(head, "\n") {
		// Comment lines carry a previous validation message back to the
		// user; drop them on the way in.
		if strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, invalidf("malformed header line '%s'", line)
		}
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "BEGIN":
			e.Begin, err = parseDate(value)
		case "END":
			e.End, err = parseDate(value)
		case "TOPIC":
			e.Topic = parseOptional(value)
		case "APPENDIX":
			e.Appendix = parseOptional(value)
		case "MEDIA":
			if v := parseOptional(value); v != "" {
				e.Media = append(e.Media, v)
			}
		default:
			if strict {
				err = invalidf("unknown header key '%s'", key)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if strict {
		if e.Begin.IsZero() {
			return nil, invalidf("BEGIN date is required")
		}
		if e.Topic == "" {
			return nil, invalidf("TOPIC is required")
		}
		if !e.End.IsZero() && e.End.Before(e.Begin) {
			return nil, invalidf("END date lies before BEGIN")
		}
	}
	return e, nil
}

// String renders the canonical entry text, the exact form stored on disk and
// presented in the editor.
func (e *Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "BEGIN: %s\n", formatDate(e.Begin))
	fmt.Fprintf(&b, "END: %s\n", formatDate(e.End))
	fmt.Fprintf(&b, "TOPIC: %s\n", formatOptional(e.Topic))
	fmt.Fprintf(&b, "APPENDIX: %s\n", formatOptional(e.Appendix))
	for _, m := range e.Media {
		fmt.Fprintf(&b, "MEDIA: %s\n", m)
	}
	b.WriteString("\n")
	b.WriteString(e.Content)
	return b.String()
}

// Shortlog is the one-line description used in menus and commit messages.
func (e *Entry) Shortlog() string {
	topic := e.Topic
	if topic == "" {
		topic = "(no topic)"
	}
	return fmt.Sprintf("%s (%s)", topic, formatDate(e.Begin))
}

// Reload re-parses the entry from text, replacing all fields on success and
// marking the entry dirty. On failure the entry is left untouched.
func (e *Entry) Reload(text string, strict bool) error {
	parsed, err := Parse(text, strict)
	if err != nil {
		return err
	}
	e.Begin = parsed.Begin
	e.End = parsed.End
	e.Topic = parsed.Topic
	e.Appendix = parsed.Appendix
	e.Media = parsed.Media
	e.Content = parsed.Content
	e.dirty = true
	return nil
}

// Dirty reports whether the entry has unsaved changes.
func (e *Entry) Dirty() bool { return e.dirty }

// Removed reports whether the entry has been deleted from the log.
func (e *Entry) Removed() bool { return e.removed }

// Path returns the entry's file path relative to the repository root, or ""
// for an entry that was never saved.
func (e *Entry) Path() string { return e.path }

// Save writes the entry to its file, allocating a date-derived path on first
// save (20YY/MM/DD-N.txt, first free N).
func (e *Entry) Save() error {
	if e.removed {
		return nil
	}
	if e.path == "" {
		path, err := e.allocatePath()
		if err != nil {
			return err
		}
		e.path = path
	}

	full := filepath.Join(e.dir, e.path)
	if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
		return fmt.Errorf("failed to create entry directory: %w", err)
	}
	if err := os.WriteFile(full, []byte(e.String()), 0640); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", e.path, err)
	}
	e.dirty = false
	return nil
}

func (e *Entry) allocatePath() (string, error) {
	if e.Begin.IsZero() {
		return "", invalidf("BEGIN date is required")
	}
	prefix := e.Begin.Format("2006/01/02")
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d.txt", prefix, n)
		if _, err := os.Stat(filepath.Join(e.dir, candidate)); err != nil {
			if os.IsNotExist(err) {
				return candidate, nil
			}
			return "", fmt.Errorf("failed to probe entry path %s: %w", candidate, err)
		}
	}
}

// Remove deletes the entry's file and detaches it from the log. Removing a
// never-saved entry just discards it.
func (e *Entry) Remove() error {
	if e.path != "" {
		if err := os.Remove(filepath.Join(e.dir, e.path)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove entry %s: %w", e.path, err)
		}
	}
	e.removed = true
	e.dirty = false
	return nil
}

// MarkDirty flags the entry for the next save. Callers mutating fields
// directly (the email handler does) use this instead of Reload.
func (e *Entry) MarkDirty() { e.dirty = true }
