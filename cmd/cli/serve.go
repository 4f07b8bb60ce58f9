// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

package cli

import (
	"context"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"klog/internal/api"
	"klog/internal/editor"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI for browsing and editing entries",
	Long: `Starts an HTTP server with a small web UI on the log: list entries,
modify or remove them, and file new ones. Every change is committed and
pushed like an interactive edit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		lg, _, err := openLog(ctx, editor.FromEnv(), false, false)
		if err != nil {
			errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}

		commit := func(ctx context.Context, message string) error {
			return lg.Commit(ctx, message, flagNoSync, false)
		}

		router := mux.NewRouter()
		api.NewServer(lg, commit).Register(router)

		statusColor.Printf("Serving klog web UI on http://%s\n", serveAddr)
		return http.ListenAndServe(serveAddr, router)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:5000", "listen address")
	serveCmd.Flags().BoolVarP(&flagNoSync, "no-sync", "n", false, "do not pull/push the log repository")
}
