// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"klog/internal/config"
	"klog/internal/dokuwiki"
	"klog/internal/editor"
	"klog/internal/gitrepo"
	"klog/internal/journal"
	"klog/internal/logger"
	"klog/internal/mailer"
	"klog/internal/picker"
	"klog/internal/prompt"
)

var (
	statusColor  = color.New(color.FgCyan)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	topicColor   = color.New(color.FgBlue)
)

var (
	flagNoSync    bool
	flagDokuOnly  bool
	flagFromEmail string
)

const dateLayout = "2006-01-02"

var rootCmd = &cobra.Command{
	Use:   "klog [date]",
	Short: "Kitchen log tool",
	Long: `klog keeps a dated logbook in a git-backed repository.

Without arguments it opens today's entry (creating one if needed) in your
$EDITOR. An optional date (YYYY-MM-DD) picks another day. Entries can also be
ingested from email files and exported to dokuwiki pages.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) > 1 {
			return fmt.Errorf("at most one date argument is accepted")
		}
		if len(args) == 1 {
			if _, err := time.Parse(dateLayout, args[0]); err != nil {
				return fmt.Errorf("invalid date '%s', expected YYYY-MM-DD", args[0])
			}
		}
		return nil
	},
	SilenceUsage: true,
	RunE:         runRoot,
}

// RunCLI is the process entry point.
func RunCLI() {
	logger.Init(false)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVarP(&flagNoSync, "no-sync", "n", false, "do not pull/push the log repository")
	rootCmd.Flags().BoolVarP(&flagDokuOnly, "dokuonly", "d", false, "only refresh the dokuwiki export, skip the editor")
	rootCmd.Flags().StringVarP(&flagFromEmail, "from-email", "e", "", "ingest an entry from the given email file")
	rootCmd.AddCommand(serveCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	date := time.Now()
	if len(args) == 1 {
		date, _ = time.Parse(dateLayout, args[0])
	}
	date = journal.Day(date)

	ed := editor.FromEnv()
	lg, cfg, err := openLog(ctx, ed, flagFromEmail != "", flagNoSync)
	if err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	doCommit := false
	force := false
	message := fmt.Sprintf("klog entry %s", date.Format(dateLayout))

	switch {
	case flagFromEmail != "":
		raw, err := os.ReadFile(flagFromEmail)
		if err != nil {
			return fmt.Errorf("failed to read email file: %w", err)
		}
		res := mailer.Handle(lg, raw)
		if res.ReplyTo == "" {
			logger.Warn("Email has no usable sender, not replying", "file", flagFromEmail)
		} else if err := mailer.SendReply(cfg.SMTPServer, cfg.BotEmail, res.ReplyTo, res.Subject, res.Reply); err != nil {
			return err
		}
		doCommit = res.Commit

	case flagDokuOnly:
		doCommit = true
		force = true
		message = "Refresh dokuwiki"

	default:
		deps := flowDeps{prompter: prompt.New(), editor: ed}
		if picker.Available() {
			deps.pickFile = picker.PickFile
		}
		doCommit, err = runEditFlow(lg, date, deps)
		if err != nil {
			errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
	}

	if !doCommit {
		statusColor.Println("Nothing to commit.")
		return nil
	}
	if err := lg.Commit(ctx, message, flagNoSync, force); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	successColor.Println("Log updated.")
	return nil
}

// openLog bootstraps the config on first run, syncs the working clone and
// opens the log inside it.
func openLog(ctx context.Context, ed editor.Editor, needsEmail, noSync bool) (*journal.Log, config.Config, error) {
	path, err := config.DefaultConfigPath()
	if err != nil {
		return nil, config.Config{}, err
	}

	if !config.Exists(path) {
		statusColor.Printf("No configuration found, opening a template in your editor (%s)...\n", path)
		time.Sleep(2 * time.Second)
		content, err := ed.Edit(config.DefaultTemplate)
		if err != nil {
			return nil, config.Config{}, err
		}
		if err := config.Write(path, content); err != nil {
			return nil, config.Config{}, err
		}
	}

	cfg, err := config.Load(path, needsEmail)
	if err != nil {
		return nil, config.Config{}, err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Color("cyan")
	s.Suffix = " Syncing log repository..."
	s.Start()

	repo, err := gitrepo.Ensure(ctx, cfg.CacheDir, cfg.RepoURL, true)
	if err == nil && !noSync {
		err = repo.Pull(ctx)
	}
	s.Stop()
	if err != nil {
		return nil, config.Config{}, err
	}

	lg, err := journal.Open(cfg.CacheDir)
	if err != nil {
		return nil, config.Config{}, err
	}
	lg.Repo = repo
	lg.Export = dokuwiki.Export
	if cfg.DokuwikiURL != "" {
		url := cfg.DokuwikiURL
		lg.Refresh = func(ctx context.Context) error {
			return dokuwiki.Trigger(ctx, url)
		}
	}
	return lg, cfg, nil
}
