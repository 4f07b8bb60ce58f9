// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

// Package dokuwiki renders the log as dokuwiki pages and pings the wiki's
// refresh endpoint after a push.
package dokuwiki

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"klog/internal/journal"
	"klog/internal/logger"
)

// Export writes one page per year (log<year>.txt) under dir, newest entries
// first. Pages are replaced wholesale so removed entries disappear from the
// wiki too.
func Export(entries []*journal.Entry, dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create dokuwiki directory: %w", err)
	}

	stale, err := filepath.Glob(filepath.Join(dir, "log*.txt"))
	if err != nil {
		return err
	}

	written := make(map[string]bool)
	for _, year := range groupByYear(entries) {
		name := fmt.Sprintf("log%d.txt", year.Year)
		page := renderYear(year)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(page), 0640); err != nil {
			return fmt.Errorf("failed to write dokuwiki page %s: %w", name, err)
		}
		written[name] = true
	}

	// Years that lost their last entry keep no page behind.
	for _, path := range stale {
		if !written[filepath.Base(path)] {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove stale page %s: %w", path, err)
			}
		}
	}

	logger.Debug("Exported dokuwiki pages", "dir", dir, "pages", len(written))
	return nil
}

func groupByYear(entries []*journal.Entry) []journal.YearGroup {
	byMonth := make(map[int]map[time.Month][]*journal.Entry)
	for _, e := range entries {
		y, m := e.Begin.Year(), e.Begin.Month()
		if byMonth[y] == nil {
			byMonth[y] = make(map[time.Month][]*journal.Entry)
		}
		byMonth[y][m] = append(byMonth[y][m], e)
	}

	years := make([]int, 0, len(byMonth))
	for y := range byMonth {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	groups := make([]journal.YearGroup, 0, len(years))
	for _, y := range years {
		yg := journal.YearGroup{Year: y}
		for m := time.December; m >= time.January; m-- {
			if es, ok := byMonth[y][m]; ok {
				sort.Slice(es, func(i, j int) bool { return es[i].Begin.After(es[j].Begin) })
				yg.Months = append(yg.Months, journal.MonthGroup{Month: m, Entries: es})
			}
		}
		groups = append(groups, yg)
	}
	return groups
}

func renderYear(year journal.YearGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "====== Log %d ======\n\n", year.Year)
	for _, month := range year.Months {
		fmt.Fprintf(&b, "===== %s %d =====\n\n", month.Month, year.Year)
		for _, e := range month.Entries {
			fmt.Fprintf(&b, "==== %s ====\n\n", e.Shortlog())
			if !e.End.IsZero() {
				fmt.Fprintf(&b, "//until %s//\n\n", e.End.Format("2006-01-02"))
			}
			b.WriteString(strings.TrimRight(e.Content, "\n"))
			b.WriteString("\n\n")
			if e.Appendix != "" {
				fmt.Fprintf(&b, "//%s//\n\n", e.Appendix)
			}
			for _, m := range e.Media {
				fmt.Fprintf(&b, "{{media>%s}}\n", m)
			}
			if len(e.Media) > 0 {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// triggerTimeout caps the refresh request so a hung wiki cannot stall the
// commit path.
const triggerTimeout = 10 * time.Second

var triggerClient = &http.Client{Timeout: triggerTimeout}

// Trigger asks the wiki to re-read the exported pages. Callers treat
// failures as a warning, not an abort: the push already succeeded.
func Trigger(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, triggerTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid dokuwiki trigger URL: %w", err)
	}
	resp, err := triggerClient.Do(req)
	if err != nil {
		return fmt.Errorf("dokuwiki trigger failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("dokuwiki trigger returned %s", resp.Status)
	}
	return nil
}
