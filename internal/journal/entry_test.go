// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

package journal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleEntry = `BEGIN: 2018-05-17
END: None
TOPIC: Grill session
APPENDIX: None
MEDIA: media/grill.jpg

We fired up the grill.
`

func TestParseSample(t *testing.T) {
	e, err := Parse(sampleEntry, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := e.Begin, Day(time.Date(2018, 5, 17, 0, 0, 0, 0, time.UTC)); !got.Equal(want) {
		t.Errorf("Begin = %v, want %v", got, want)
	}
	if !e.End.IsZero() {
		t.Errorf("End = %v, want zero", e.End)
	}
	if e.Topic != "Grill session" {
		t.Errorf("Topic = %q", e.Topic)
	}
	if e.Appendix != "" {
		t.Errorf("Appendix = %q, want empty", e.Appendix)
	}
	if len(e.Media) != 1 || e.Media[0] != "media/grill.jpg" {
		t.Errorf("Media = %v", e.Media)
	}
	if e.Content != "We fired up the grill.\n" {
		t.Errorf("Content = %q", e.Content)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		strict bool
	}{
		{name: "no blank line", text: "BEGIN: 2018-05-17\nTOPIC: x", strict: false},
		{name: "malformed header", text: "BEGIN 2018-05-17\n\nbody", strict: false},
		{name: "bad date", text: "BEGIN: 17.05.2018\n\nbody", strict: false},
		{name: "missing begin strict", text: "TOPIC: x\n\nbody", strict: true},
		{name: "missing topic strict", text: "BEGIN: 2018-05-17\n\nbody", strict: true},
		{name: "unknown key strict", text: "BEGIN: 2018-05-17\nTOPIC: x\nBOGUS: y\n\nbody", strict: true},
		{name: "end before begin strict", text: "BEGIN: 2018-05-17\nEND: 2018-05-16\nTOPIC: x\n\nbody", strict: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text, tt.strict)
			if err == nil {
				t.Fatal("expected parse error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("error %v is not a ValidationError", err)
			}
		})
	}
}

func TestParseLenientToleratesGaps(t *testing.T) {
	// Files from older tools may omit TOPIC or carry stray keys.
	e, err := Parse("BEGIN: 2018-05-17\nBOGUS: y\n\nbody", false)
	if err != nil {
		t.Fatalf("Parse lenient: %v", err)
	}
	if e.Topic != "" {
		t.Errorf("Topic = %q, want empty", e.Topic)
	}
}

func TestStringRoundTrip(t *testing.T) {
	e, err := Parse(sampleEntry, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := e.String(); got != sampleEntry {
		t.Errorf("String = %q, want %q", got, sampleEntry)
	}
}

func TestParseSkipsCommentLines(t *testing.T) {
	text := "# previous error message\n" + sampleEntry
	e, err := Parse(text, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strings.Contains(e.String(), "#") {
		t.Errorf("comment leaked into entry: %q", e.String())
	}
}

func TestReloadKeepsEntryOnFailure(t *testing.T) {
	e, err := Parse(sampleEntry, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := e.Reload("garbage", true); err == nil {
		t.Fatal("expected reload error")
	}
	if e.Topic != "Grill session" {
		t.Errorf("Topic changed after failed reload: %q", e.Topic)
	}
}

func TestShortlog(t *testing.T) {
	e, _ := Parse(sampleEntry, true)
	if got := e.Shortlog(); got != "Grill session (2018-05-17)" {
		t.Errorf("Shortlog = %q", got)
	}
	var empty Entry
	if got := empty.Shortlog(); got != "(no topic) (None)" {
		t.Errorf("Shortlog = %q", got)
	}
}

func TestSaveAllocatesSequentialPaths(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	date := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	for i, want := range []string{"2024/03/09-1.txt", "2024/03/09-2.txt"} {
		e := l.NewEntry(date)
		e.Topic = "t"
		e.Content = "body\n"
		if err := e.Save(); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		if e.Path() != want {
			t.Errorf("Path = %q, want %q", e.Path(), want)
		}
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Errorf("entry file missing: %v", err)
		}
	}
}

func TestRemoveDeletesFile(t *testing.T) {
	dir := t.TempDir()
	l, _ := Open(dir)
	e := l.NewEntry(time.Now())
	e.Topic = "t"
	if err := e.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	path := filepath.Join(dir, e.Path())

	if err := e.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("entry file still present after Remove")
	}
	if len(l.Entries()) != 0 {
		t.Errorf("removed entry still listed")
	}
}
