package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"signbridge/internal/ipc"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one run in detail (defaults to the active run)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id, err := resolveRunID(client, args)
				if err != nil {
					return err
				}
				resp, err := client.RunDescribe(id)
				if err != nil {
					return err
				}
				run := resp.Run

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Run "+shortID(run.ID), colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("ID", run.ID, "", colorize))
				fmt.Fprintln(stdout, renderStatusLine("Stage", run.StageLabel, stageColor(run.Stage), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Source", run.SourceFile, "", colorize))
				if run.LanguageName != "" {
					fmt.Fprintln(stdout, renderStatusLine("Language", fmt.Sprintf("%s (%s)", run.LanguageName, run.DetectedLanguage), "", colorize))
				}
				if run.Transcript != "" {
					fmt.Fprintln(stdout, renderStatusLine("Transcript", run.Transcript, "", colorize))
				}
				if run.TranslatedText != "" {
					fmt.Fprintln(stdout, renderStatusLine("English", run.TranslatedText, "", colorize))
				}
				if run.Translation != nil && run.Translation.Identity {
					fmt.Fprintln(stdout, renderStatusLine("Translation", "not needed (already English)", "", colorize))
				}
				if run.Model != "" {
					fmt.Fprintln(stdout, renderStatusLine("Model", run.Model, "", colorize))
				}
				if run.Video != nil {
					fmt.Fprintln(stdout, renderStatusLine("Preview", run.Video.PreviewURL, "", colorize))
					fmt.Fprintln(stdout, renderStatusLine("Duration", fmt.Sprintf("%.1fs", run.Video.Duration), "", colorize))
					if len(run.Video.SignsUsed) > 0 {
						fmt.Fprintln(stdout, renderStatusLine("Signs", strings.Join(run.Video.SignsUsed, ", "), "", colorize))
					}
					if len(run.Video.SignsSkipped) > 0 {
						fmt.Fprintln(stdout, renderStatusLine("Skipped", strings.Join(run.Video.SignsSkipped, ", "), ansiYellow, colorize))
					}
				}
				if run.SavedURL != "" {
					fmt.Fprintln(stdout, renderStatusLine("Saved", run.SavedURL, ansiGreen, colorize))
				}
				if run.Error != nil {
					message := run.Error.Message
					if run.Error.Retryable {
						message += " (retryable)"
					}
					fmt.Fprintln(stdout, renderStatusLine("Error", message, ansiRed, colorize))
				}
				return nil
			})
		},
	}
}

// resolveRunID takes an optional id argument, accepting unique prefixes, and
// falls back to the active run when no argument was given.
func resolveRunID(client *ipc.Client, args []string) (string, error) {
	if len(args) == 0 {
		status, err := client.Status()
		if err != nil {
			return "", err
		}
		if status.ActiveRun == nil {
			return "", fmt.Errorf("no active run; pass a run id")
		}
		return status.ActiveRun.ID, nil
	}

	wanted := strings.TrimSpace(args[0])
	list, err := client.RunList(0)
	if err != nil {
		return "", err
	}
	var matched string
	for _, run := range list.Runs {
		if run.ID == wanted {
			return run.ID, nil
		}
		if strings.HasPrefix(run.ID, wanted) {
			if matched != "" {
				return "", fmt.Errorf("run id prefix %q is ambiguous", wanted)
			}
			matched = run.ID
		}
	}
	if matched == "" {
		return "", fmt.Errorf("run %q not found", wanted)
	}
	return matched, nil
}
