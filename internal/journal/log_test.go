// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeEntry(t *testing.T, dir, rel, topic, date string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
		t.Fatal(err)
	}
	text := "BEGIN: " + date + "\nEND: None\nTOPIC: " + topic + "\nAPPENDIX: None\n\nbody\n"
	if err := os.WriteFile(full, []byte(text), 0640); err != nil {
		t.Fatal(err)
	}
}

func TestOpenScansEntries(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "2023/12/31-1.txt", "old", "2023-12-31")
	writeEntry(t, dir, "2024/01/01-1.txt", "first", "2024-01-01")
	writeEntry(t, dir, "2024/01/01-2.txt", "second", "2024-01-01")
	// Non-entry files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0640); err != nil {
		t.Fatal(err)
	}

	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := len(l.Entries()); got != 3 {
		t.Fatalf("entries = %d, want 3", got)
	}

	day := time.Date(2024, 1, 1, 15, 4, 5, 0, time.Local)
	matches := l.Get(day)
	if len(matches) != 2 {
		t.Fatalf("Get = %d entries, want 2", len(matches))
	}
	if matches[0].Topic != "first" || matches[1].Topic != "second" {
		t.Errorf("Get order: %q, %q", matches[0].Topic, matches[1].Topic)
	}

	if e := l.GetNo(0); e == nil || e.Topic != "old" {
		t.Errorf("GetNo(0) = %v", e)
	}
	if e := l.GetNo(99); e != nil {
		t.Errorf("GetNo(99) = %v, want nil", e)
	}
}

func TestOpenRejectsMalformedEntry(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "2024/01/01-1.txt")
	if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("no header block"), 0640); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(dir); err == nil {
		t.Fatal("expected open error for malformed entry")
	}
}

func TestByYearGroupsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "2023/07/01-1.txt", "summer", "2023-07-01")
	writeEntry(t, dir, "2024/01/01-1.txt", "newyear", "2024-01-01")
	writeEntry(t, dir, "2024/03/05-1.txt", "spring", "2024-03-05")

	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	years := l.ByYear()
	if len(years) != 2 || years[0].Year != 2024 || years[1].Year != 2023 {
		t.Fatalf("years = %+v", years)
	}
	if years[0].Months[0].Month != time.March || years[0].Months[1].Month != time.January {
		t.Errorf("months = %+v", years[0].Months)
	}
}

type fakeRepo struct {
	commits []string
	staged  bool
	pushed  int
}

func (f *fakeRepo) Commit(ctx context.Context, message string) (bool, error) {
	f.commits = append(f.commits, message)
	return f.staged, nil
}

func (f *fakeRepo) Push(ctx context.Context) error {
	f.pushed++
	return nil
}

func TestCommitSavesAndPushes(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := &fakeRepo{staged: true}
	l.Repo = repo

	refreshed := 0
	l.Refresh = func(ctx context.Context) error {
		refreshed++
		return nil
	}
	exported := 0
	l.Export = func(entries []*Entry, exportDir string) error {
		exported++
		return nil
	}

	e := l.NewEntry(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	e.Topic = "t"
	e.Content = "body\n"

	if err := l.Commit(context.Background(), "klog entry 2024-05-01", false, false); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if e.Dirty() {
		t.Error("entry still dirty after commit")
	}
	if exported != 1 {
		t.Errorf("export ran %d times, want 1", exported)
	}
	if len(repo.commits) != 1 || repo.commits[0] != "klog entry 2024-05-01" {
		t.Errorf("commits = %v", repo.commits)
	}
	if repo.pushed != 1 {
		t.Errorf("pushed = %d, want 1", repo.pushed)
	}
	if refreshed != 1 {
		t.Errorf("refreshed = %d, want 1", refreshed)
	}
}

func TestCommitNoSyncSkipsPush(t *testing.T) {
	dir := t.TempDir()
	l, _ := Open(dir)
	repo := &fakeRepo{staged: true}
	l.Repo = repo

	if err := l.Commit(context.Background(), "m", true, false); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if repo.pushed != 0 {
		t.Errorf("pushed = %d, want 0", repo.pushed)
	}
}

func TestCommitNothingStaged(t *testing.T) {
	dir := t.TempDir()
	l, _ := Open(dir)
	repo := &fakeRepo{staged: false}
	l.Repo = repo

	// Without force an empty commit ends the run quietly.
	if err := l.Commit(context.Background(), "m", false, false); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if repo.pushed != 0 {
		t.Errorf("pushed = %d, want 0", repo.pushed)
	}

	// force pushes and refreshes regardless.
	if err := l.Commit(context.Background(), "m", false, true); err != nil {
		t.Fatalf("Commit force: %v", err)
	}
	if repo.pushed != 1 {
		t.Errorf("pushed = %d, want 1", repo.pushed)
	}
}

func TestAttachAndRemoveMedia(t *testing.T) {
	dir := t.TempDir()
	l, _ := Open(dir)
	e := l.NewEntry(time.Now())
	e.Topic = "t"

	src := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(src, []byte("jpegdata"), 0640); err != nil {
		t.Fatal(err)
	}

	if err := e.AttachMediaFile(src); err != nil {
		t.Fatalf("AttachMediaFile: %v", err)
	}
	if err := e.AttachMediaFile(src); err != nil {
		t.Fatalf("AttachMediaFile second: %v", err)
	}
	want := []string{"media/photo.jpg", "media/photo-1.jpg"}
	if len(e.Media) != 2 || e.Media[0] != want[0] || e.Media[1] != want[1] {
		t.Fatalf("Media = %v, want %v", e.Media, want)
	}
	for _, rel := range want {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Errorf("media file %s missing: %v", rel, err)
		}
	}

	if err := e.RemoveMedia(0); err != nil {
		t.Fatalf("RemoveMedia: %v", err)
	}
	if len(e.Media) != 1 || e.Media[0] != "media/photo-1.jpg" {
		t.Errorf("Media after removal = %v", e.Media)
	}
	if err := e.RemoveMedia(5); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

func TestAttachMediaFileRejectsMissing(t *testing.T) {
	dir := t.TempDir()
	l, _ := Open(dir)
	e := l.NewEntry(time.Now())

	err := e.AttachMediaFile(filepath.Join(dir, "nope.jpg"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error %v is not a ValidationError", err)
	}
}
