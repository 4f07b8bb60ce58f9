// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

// Package api implements the HTTP handlers behind the web UI: browsing,
// editing and creating log entries.
package api

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"klog/internal/journal"
	"klog/internal/logger"
	"klog/internal/web"
)

// CommitFunc persists the log with a commit message. The server never
// forces empty commits.
type CommitFunc func(ctx context.Context, message string) error

// Server holds the handlers for the entry routes. The HTTP server runs
// handlers concurrently while the journal is a plain in-memory structure,
// so mu serializes all access to it.
type Server struct {
	mu     sync.Mutex
	log    *journal.Log
	commit CommitFunc
	tmpl   *template.Template
}

func NewServer(lg *journal.Log, commit CommitFunc) *Server {
	return &Server{log: lg, commit: commit, tmpl: web.Templates()}
}

// Register attaches the UI routes to the router.
func (s *Server) Register(r *mux.Router) {
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/list", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/modify", s.handleModify).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/new", s.handleNew).Methods(http.MethodGet, http.MethodPost)
}

type entryView struct {
	No       int
	Shortlog string
}

type monthView struct {
	Label   string
	Entries []entryView
}

type yearView struct {
	Year   int
	Months []monthView
}

type listData struct {
	Info      string
	InfoClass string
	Years     []yearView
}

type mediaView struct {
	Index int
	Path  string
}

type formData struct {
	No        int
	Shortlog  string
	Begin     string
	End       string
	Topic     string
	Appendix  string
	Content   string
	Media     []mediaView
	Info      string
	InfoClass string
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		logger.Error("Template rendering failed", "template", name, "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", nil)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderList(w, "", "")
}

func (s *Server) renderList(w http.ResponseWriter, info, infoClass string) {
	numbers := make(map[*journal.Entry]int)
	for i, e := range s.log.Entries() {
		numbers[e] = i
	}

	var years []yearView
	for _, yg := range s.log.ByYear() {
		yv := yearView{Year: yg.Year}
		for _, mg := range yg.Months {
			mv := monthView{Label: fmt.Sprintf("%s %d", mg.Month, yg.Year)}
			for _, e := range mg.Entries {
				mv.Entries = append(mv.Entries, entryView{No: numbers[e], Shortlog: e.Shortlog()})
			}
			yv.Months = append(yv.Months, mv)
		}
		years = append(years, yv)
	}
	s.render(w, "list.html", listData{Info: info, InfoClass: infoClass, Years: years})
}

func entryForm(no int, e *journal.Entry) formData {
	f := formData{
		No:       no,
		Shortlog: e.Shortlog(),
		Topic:    e.Topic,
		Appendix: e.Appendix,
		Content:  e.Content,
	}
	if !e.Begin.IsZero() {
		f.Begin = e.Begin.Format("2006-01-02")
	}
	if !e.End.IsZero() {
		f.End = e.End.Format("2006-01-02")
	}
	for i, m := range e.Media {
		f.Media = append(f.Media, mediaView{Index: i, Path: m})
	}
	return f
}

// rawFromForm rebuilds the canonical entry text from the submitted fields,
// carrying over the media lines that survived removal.
func rawFromForm(r *http.Request, media []string) string {
	optional := func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return "None"
		}
		return v
	}

	begin := strings.TrimSpace(r.FormValue("begin"))
	end := optional(r.FormValue("end"))
	if end == begin {
		end = "None"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "BEGIN: %s\n", begin)
	fmt.Fprintf(&b, "END: %s\n", end)
	fmt.Fprintf(&b, "TOPIC: %s\n", optional(r.FormValue("topic")))
	fmt.Fprintf(&b, "APPENDIX: %s\n", optional(r.FormValue("appendix")))
	for _, m := range media {
		fmt.Fprintf(&b, "MEDIA: %s\n", m)
	}
	b.WriteString("\n")
	content := strings.ReplaceAll(r.FormValue("content"), "\r\n", "\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// requestedRemovals returns the media indices ticked for removal, highest
// first so removals do not shift the remaining indices.
func requestedRemovals(r *http.Request, mediaCount int) []int {
	var removals []int
	for key := range r.Form {
		idxStr, found := strings.CutPrefix(key, "remove_")
		if !found {
			continue
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 0 || idx >= mediaCount {
			continue
		}
		removals = append(removals, idx)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(removals)))
	return removals
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		http.Redirect(w, r, "/list", http.StatusSeeOther)
		return
	}
	entry := s.log.GetNo(id)
	if entry == nil {
		http.Redirect(w, r, "/list", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		s.render(w, "modify.html", entryForm(id, entry))
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.Form.Get("remove") != "" {
		shortlog := entry.Shortlog()
		if err := entry.Remove(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := s.commit(r.Context(), "Removed "+shortlog); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.renderList(w, "Entry successfully removed", "success")
		return
	}

	removals := requestedRemovals(r, len(entry.Media))
	for _, idx := range removals {
		if err := entry.RemoveMedia(idx); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	raw := rawFromForm(r, entry.Media)
	if raw == entry.String() && len(removals) == 0 {
		f := entryForm(id, entry)
		f.Info, f.InfoClass = "Nothing changed", "warning"
		s.render(w, "modify.html", f)
		return
	}

	if err := entry.Reload(raw, true); err != nil {
		f := entryForm(id, entry)
		f.Info, f.InfoClass = err.Error(), "danger"
		s.render(w, "modify.html", f)
		return
	}
	if err := s.commit(r.Context(), "Modified "+entry.Shortlog()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	f := entryForm(id, entry)
	f.Info, f.InfoClass = "Entry saved", "success"
	s.render(w, "modify.html", f)
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		f := formData{Begin: time.Now().Format("2006-01-02")}
		s.render(w, "new.html", f)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry := s.log.NewEntry(time.Now())
	raw := rawFromForm(r, nil)
	if err := entry.Reload(raw, true); err != nil {
		// Discard the half-built entry so later commits don't pick it up.
		_ = entry.Remove()
		f := formData{
			Begin:    strings.TrimSpace(r.FormValue("begin")),
			End:      strings.TrimSpace(r.FormValue("end")),
			Topic:    strings.TrimSpace(r.FormValue("topic")),
			Appendix: strings.TrimSpace(r.FormValue("appendix")),
			Content:  r.FormValue("content"),
		}
		f.Info, f.InfoClass = err.Error(), "danger"
		s.render(w, "new.html", f)
		return
	}

	if err := s.commit(r.Context(), "Modified "+entry.Shortlog()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.renderList(w, "Entry created", "success")
}
