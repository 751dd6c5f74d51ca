package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"signbridge/internal/ipc"
	"signbridge/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var checks bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and conversion status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if checks {
				if err := printPreflight(cmd, ctx); err != nil {
					return err
				}
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				running := "stopped"
				runningColor := ansiRed
				if resp.Running {
					running = fmt.Sprintf("running (pid %d)", resp.PID)
					runningColor = ansiGreen
				}
				fmt.Fprintln(stdout, renderStatusLine("State", running, runningColor, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Ledger", resp.LedgerDBPath, "", colorize))
				fmt.Fprintln(stdout, renderStatusLine("Lock", resp.LockPath, "", colorize))
				fmt.Fprintln(stdout, renderStatusLine("Languages", strings.Join(resp.Languages, ", "), "", colorize))

				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Active Run", colorize) {
					fmt.Fprintln(stdout, line)
				}
				if resp.ActiveRun == nil {
					fmt.Fprintln(stdout, renderStatusLine("Run", "none", "", colorize))
					return nil
				}
				run := resp.ActiveRun
				fmt.Fprintln(stdout, renderStatusLine("ID", run.ID, "", colorize))
				fmt.Fprintln(stdout, renderStatusLine("Stage", run.StageLabel, stageColor(run.Stage), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Source", run.SourceFile, "", colorize))
				if run.LanguageName != "" {
					fmt.Fprintln(stdout, renderStatusLine("Language", fmt.Sprintf("%s (%s)", run.LanguageName, run.DetectedLanguage), "", colorize))
				}
				if run.Progress.Message != "" {
					progress := fmt.Sprintf("%s (%.0f%%)", run.Progress.Message, run.Progress.Percent)
					fmt.Fprintln(stdout, renderStatusLine("Progress", progress, "", colorize))
				}
				if run.Error != nil {
					fmt.Fprintln(stdout, renderStatusLine("Error", run.Error.Message, ansiRed, colorize))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&checks, "checks", false, "Run service and path readiness checks")
	return cmd
}

func printPreflight(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Readiness", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, result := range preflight.RunAll(cmd.Context(), cfg) {
		color := ansiRed
		if result.Passed {
			color = ansiGreen
		}
		fmt.Fprintln(stdout, renderStatusLine(result.Name, result.Detail, color, colorize))
	}
	fmt.Fprintln(stdout)
	return nil
}
