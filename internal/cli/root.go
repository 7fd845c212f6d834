// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// rootOptions holds the global flags.
type rootOptions struct {
	configPath string
	baseURL    string
	verbose    bool
}

// NewRootCmd builds the command tree. Each call returns an independent
// tree, so tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "peakabot",
		Short: "Chat with a Peaka project's AI agent",
		Long: `peakabot is a terminal client for the Peaka partner API.

Without a subcommand it opens the interactive TUI: enter an API key, load
your project's conversations and chat with the project's AI agent.

Quick Start:
  peakabot                      # open the TUI
  peakabot login                # store an API key
  peakabot ask "top customers"  # one-shot question`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.peakabot/config.toml)")
	flags.StringVar(&opts.baseURL, "base-url", "", "Peaka partner API base URL")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newThreadsCmd(opts),
		newShowCmd(opts),
		newAskCmd(opts),
		newChatCmd(opts),
		newExportCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// Execute runs the command line with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
