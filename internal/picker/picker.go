// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

// Package picker is the interactive file chooser used when attaching media
// to an entry. It is only offered when the process runs on a real terminal;
// callers check Available once at startup.
package picker

import (
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Available reports whether a picker can run: both ends of the terminal must
// be a tty.
func Available() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

type model struct {
	filepicker filepicker.Model
	selected   string
	quitting   bool
}

func (m model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.filepicker, cmd = m.filepicker.Update(msg)

	if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
		m.selected = path
		return m, tea.Quit
	}
	return m, cmd
}

func (m model) View() string {
	if m.quitting || m.selected != "" {
		return ""
	}
	return titleStyle.Render("Pick a media file") + "\n\n" +
		m.filepicker.View() + "\n" +
		helpStyle.Render("enter: attach  q/esc: cancel")
}

// PickFile runs the picker and returns the chosen path. ok is false when the
// user cancelled.
func PickFile() (path string, ok bool, err error) {
	fp := filepicker.New()
	fp.ShowHidden = false
	if home, homeErr := os.UserHomeDir(); homeErr == nil {
		fp.CurrentDirectory = home
	}

	final, err := tea.NewProgram(model{filepicker: fp}).Run()
	if err != nil {
		return "", false, err
	}
	m := final.(model)
	if m.selected == "" {
		return "", false, nil
	}
	return m.selected, true, nil
}
