// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/peakabot-tui/internal/export"
	"github.com/jeranaias/peakabot-tui/internal/model"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <threadID>",
		Short: "Export a thread transcript",
		Long: `Export a thread as Markdown, JSON or YAML.

Without --output the transcript is written to stdout. An --output that
names a directory gets a file named after the thread title.

  peakabot export <id> --format md -o ./transcripts
  peakabot export <id> --format json | jq .messages`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := export.NewExporter(format)
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), opts, func(a *app) error {
				session := a.session()
				threadID := args[0]

				msgs, err := a.sync.Load(cmd.Context(), session, threadID)
				if err != nil {
					return err
				}

				thread := model.Thread{ThreadID: threadID, ProjectID: session.ProjectID}
				if threads, err := a.threads(cmd.Context()); err == nil {
					if i := model.FindThread(threads, threadID); i >= 0 {
						thread = threads[i]
					}
				}

				t := export.NewTranscript(thread, session.ProjectName, msgs)
				if output == "" || output == "-" {
					return exp.Export(t, cmd.OutOrStdout())
				}

				path, err := export.ToFile(t, exp, output)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, newOutputStyles(out).ok(fmt.Sprintf("Exported %d messages to %s", len(msgs), path)))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "F", "md", "output format: md, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file or directory to write (default stdout)")
	return cmd
}
