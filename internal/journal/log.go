// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

package journal

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"klog/internal/logger"
)

// entryFile matches entry paths relative to the repository root.
var entryFile = regexp.MustCompile(`^20\d{2}/\d{2}/\d{2}-\d+\.txt$`)

// SyncRepo is the slice of git operations Commit needs.
type SyncRepo interface {
	Commit(ctx context.Context, message string) (bool, error)
	Push(ctx context.Context) error
}

// ExportFunc regenerates a wiki rendition of the entries inside the working
// tree before committing.
type ExportFunc func(entries []*Entry, dir string) error

// Log is the collection of all entries in one repository working tree.
type Log struct {
	dir     string
	entries []*Entry

	// Repo handles commit and push; a nil Repo restricts Commit to saving
	// files, which is what tests and dry runs want.
	Repo SyncRepo

	// Export, when set, is run before committing so the generated pages are
	// part of the same commit.
	Export ExportFunc

	// Refresh, when set, is pinged after a successful push. Failures are
	// logged, not fatal.
	Refresh func(ctx context.Context) error
}

// Open scans dir for entry files and parses them all. A malformed file
// aborts the open.
func Open(dir string) (*Log, error) {
	l := &Log{dir: dir}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// The media and dokuwiki trees hold no entries.
			if d.Name() == mediaDir || d.Name() == "dokuwiki" || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if !entryFile.MatchString(filepath.ToSlash(rel)) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read entry %s: %w", rel, err)
		}
		entry, err := Parse(string(data), false)
		if err != nil {
			return fmt.Errorf("entry %s: %w", rel, err)
		}
		entry.dir = dir
		entry.path = filepath.ToSlash(rel)
		l.entries = append(l.entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan log directory %s: %w", dir, err)
	}

	// Scan order is stable: path order is chronological by construction.
	sort.Slice(l.entries, func(i, j int) bool {
		return l.entries[i].path < l.entries[j].path
	})

	logger.Debug("Opened log", "dir", dir, "entries", len(l.entries))
	return l, nil
}

// Dir returns the repository working tree root.
func (l *Log) Dir() string { return l.dir }

// Entries returns all live entries in scan order.
func (l *Log) Entries() []*Entry {
	live := make([]*Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if !e.removed {
			live = append(live, e)
		}
	}
	return live
}

// Get returns the entries filed under the given calendar day.
func (l *Log) Get(date time.Time) []*Entry {
	date = Day(date)
	var matches []*Entry
	for _, e := range l.Entries() {
		if e.Begin.Equal(date) {
			matches = append(matches, e)
		}
	}
	return matches
}

// GetNo returns the nth live entry in scan order, or nil.
func (l *Log) GetNo(n int) *Entry {
	entries := l.Entries()
	if n < 0 || n >= len(entries) {
		return nil
	}
	return entries[n]
}

// NewEntry registers a fresh template entry for the given day. It is not
// written to disk until the log commits.
func (l *Log) NewEntry(date time.Time) *Entry {
	e := &Entry{
		Begin: Day(date),
		dir:   l.dir,
		dirty: true,
	}
	l.entries = append(l.entries, e)
	return e
}

// YearGroup is one year of entries, newest month first, for rendered views.
type YearGroup struct {
	Year   int
	Months []MonthGroup
}

// MonthGroup is one month of entries, newest first.
type MonthGroup struct {
	Month   time.Month
	Entries []*Entry
}

// ByYear groups the live entries by year and month, newest first.
func (l *Log) ByYear() []YearGroup {
	type ym struct {
		year  int
		month time.Month
	}
	groups := make(map[ym][]*Entry)
	for _, e := range l.Entries() {
		k := ym{e.Begin.Year(), e.Begin.Month()}
		groups[k] = append(groups[k], e)
	}

	keys := make([]ym, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year > keys[j].year
		}
		return keys[i].month > keys[j].month
	})

	var years []YearGroup
	for _, k := range keys {
		entries := groups[k]
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].path > entries[j].path
		})
		if len(years) == 0 || years[len(years)-1].Year != k.year {
			years = append(years, YearGroup{Year: k.year})
		}
		y := &years[len(years)-1]
		y.Months = append(y.Months, MonthGroup{Month: k.month, Entries: entries})
	}
	return years
}

// SaveDirty writes every entry with unsaved changes.
func (l *Log) SaveDirty() error {
	for _, e := range l.entries {
		if e.dirty {
			if err := e.Save(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Commit persists all dirty entries, regenerates the wiki export, and has
// the attached repo commit the working tree. Unless noSync is set, a
// resulting commit is pushed and the refresh hook pinged. With force the
// push and refresh run even when git had nothing to record.
func (l *Log) Commit(ctx context.Context, message string, noSync, force bool) error {
	if err := l.SaveDirty(); err != nil {
		return err
	}

	if l.Export != nil {
		if err := l.Export(l.Entries(), filepath.Join(l.dir, "dokuwiki")); err != nil {
			return fmt.Errorf("dokuwiki export failed: %w", err)
		}
	}

	if l.Repo == nil {
		return nil
	}

	committed, err := l.Repo.Commit(ctx, message)
	if err != nil {
		return err
	}
	if !committed && !force {
		logger.Info("No changes to commit")
		return nil
	}
	if noSync {
		logger.Info("Sync skipped", "message", message)
		return nil
	}

	if err := l.Repo.Push(ctx); err != nil {
		return err
	}
	logger.Info("Committed and pushed", "message", message)

	if l.Refresh != nil {
		if err := l.Refresh(ctx); err != nil {
			logger.Warn("Wiki refresh failed", "error", err)
		}
	}
	return nil
}
