package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"signbridge/internal/ipc"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded conversion runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runsList(ctx, cmd, 0)
		},
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runsList(ctx, cmd, limit)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of runs to show (0 shows all)")

	var finishedOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove recorded runs from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RunClear(finishedOnly)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", resp.Removed)
				return nil
			})
		},
	}
	clearCmd.Flags().BoolVar(&finishedOnly, "finished", false, "Remove only settled runs, keeping failures")

	runsCmd.AddCommand(listCmd)
	runsCmd.AddCommand(clearCmd)
	return runsCmd
}

func runsList(ctx *commandContext, cmd *cobra.Command, limit int) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.RunList(limit)
		if err != nil {
			return err
		}
		stdout := cmd.OutOrStdout()
		if len(resp.Runs) == 0 {
			fmt.Fprintln(stdout, "No runs recorded")
			return nil
		}

		rows := make([][]string, 0, len(resp.Runs))
		for _, run := range resp.Runs {
			language := run.LanguageName
			if language == "" {
				language = "-"
			}
			rows = append(rows, []string{
				shortID(run.ID),
				run.StageLabel,
				run.SourceFile,
				language,
				truncate(run.TranslatedText, 40),
				run.CreatedAt,
			})
		}
		fmt.Fprintln(stdout, renderTable(
			[]string{"ID", "Stage", "Source", "Language", "English Text", "Created"},
			rows,
		))
		return nil
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "…"
}
