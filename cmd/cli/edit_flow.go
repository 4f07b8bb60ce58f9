// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"klog/internal/editor"
	"klog/internal/journal"
	"klog/internal/prompt"
)

// flowDeps bundles the interactive collaborators so tests can drive the
// flow with fakes. A nil pickFile disables the media menu entirely.
type flowDeps struct {
	prompter prompt.Prompter
	editor   editor.Editor
	pickFile func() (string, bool, error)
}

// runEditFlow walks one entry through selection, editing, media handling
// and the final confirmation. It returns whether the log should commit.
func runEditFlow(lg *journal.Log, date time.Time, deps flowDeps) (bool, error) {
	entry, ok, err := selectEntry(lg, date, deps.prompter)
	if err != nil || !ok {
		return false, err
	}

	commit, skipRest, err := editLoop(entry, deps)
	if err != nil || skipRest {
		return commit, err
	}

	if deps.pickFile != nil {
		if err := mediaLoop(entry, deps); err != nil {
			return false, err
		}
	}

	return prompt.YesNo(deps.prompter, "Commit changes?", true)
}

// selectEntry picks the entry to edit for the given day. With no existing
// entries a fresh one is created without prompting; otherwise the user
// chooses between the existing entries, a new one, or leaving.
func selectEntry(lg *journal.Log, date time.Time, p prompt.Prompter) (*journal.Entry, bool, error) {
	entries := lg.Get(date)
	if len(entries) == 0 {
		return lg.NewEntry(date), true, nil
	}

	// Single keystroke selection caps the menu at nine entries per day.
	if len(entries) > 9 {
		entries = entries[:9]
	}

	fmt.Printf("Entries for %s:\n", date.Format(dateLayout))
	allowed := make([]byte, 0, len(entries)+2)
	for i, e := range entries {
		fmt.Printf("  %d) %s\n", i+1, topicColor.Sprint(e.Shortlog()))
		allowed = append(allowed, byte('1'+i))
	}
	fmt.Println("  n) new entry")
	fmt.Println("  e) exit")
	allowed = append(allowed, 'n', 'e')

	choice, err := p.Choose("Select", allowed, 'n')
	if err != nil {
		return nil, false, err
	}
	switch choice {
	case 'e':
		return nil, false, nil
	case 'n':
		return lg.NewEntry(date), true, nil
	default:
		return entries[choice-'1'], true, nil
	}
}

// editLoop runs the edit-validate cycle on one entry. skipRest is set when
// the flow should end without media or confirmation prompts: the entry was
// deleted (commit) or the user abandoned an invalid buffer (no commit).
func editLoop(entry *journal.Entry, deps flowDeps) (commit, skipRest bool, err error) {
	buffer := entry.String()
	for {
		text, err := deps.editor.Edit(buffer)
		if err != nil {
			return false, false, err
		}

		if strings.TrimSpace(text) == "" {
			del, err := prompt.YesNo(deps.prompter, "Buffer is empty. Delete this entry?", false)
			if err != nil {
				return false, false, err
			}
			if del {
				if err := entry.Remove(); err != nil {
					return false, false, err
				}
				return true, true, nil
			}
			buffer = entry.String()
			continue
		}

		reloadErr := entry.Reload(text, true)
		if reloadErr == nil {
			return false, false, nil
		}
		var verr *journal.ValidationError
		if !errors.As(reloadErr, &verr) {
			return false, false, reloadErr
		}

		errorColor.Printf("Invalid entry: %v\n", reloadErr)
		retry, err := prompt.YesNo(deps.prompter, "Re-edit the entry?", true)
		if err != nil {
			return false, false, err
		}
		if !retry {
			return false, true, nil
		}
		buffer = "# " + verr.Reason + "\n" + text
	}
}

// mediaLoop lets the user attach and detach media until they leave the
// menu. Picker failures for a chosen path are reported and the menu shown
// again.
func mediaLoop(entry *journal.Entry, deps flowDeps) error {
	for {
		if len(entry.Media) == 0 {
			fmt.Println("No media attached.")
		} else {
			fmt.Println("Attached media:")
			for i, m := range entry.Media {
				fmt.Printf("  %d) %s\n", i, m)
			}
		}
		fmt.Println("  n) attach a file")
		fmt.Println("  e) done")

		count := len(entry.Media)
		if count > 10 {
			count = 10
		}
		allowed := make([]byte, 0, count+2)
		for i := 0; i < count; i++ {
			allowed = append(allowed, byte('0'+i))
		}
		allowed = append(allowed, 'n', 'e')

		choice, err := deps.prompter.Choose("Media", allowed, 'e')
		if err != nil {
			return err
		}
		switch choice {
		case 'e':
			return nil
		case 'n':
			path, ok, err := deps.pickFile()
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := entry.AttachMediaFile(path); err != nil {
				var verr *journal.ValidationError
				if !errors.As(err, &verr) {
					return err
				}
				errorColor.Printf("Cannot attach: %v\n", err)
				continue
			}
			successColor.Printf("Attached %s\n", entry.Media[len(entry.Media)-1])
		default:
			if err := entry.RemoveMedia(int(choice - '0')); err != nil {
				return err
			}
		}
	}
}
