package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"signbridge/internal/ipc"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "translate <text>",
		Short: "Replace the English text used for video generation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.apiBaseURL()
			if err != nil {
				return err
			}
			id, err := activeRunID(ctx)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			run, err := postRunAction(cmd.Context(), base, id, "translation", map[string]string{"text": text})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "English text updated: %s\n", run.TranslatedText)
			return nil
		},
	}
}

func newVideoCommand(ctx *commandContext) *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Generate the sign video for the active run",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.apiBaseURL()
			if err != nil {
				return err
			}
			id, err := activeRunID(ctx)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if _, err := postRunAction(cmd.Context(), base, id, "video", map[string]string{"model": model}); err != nil {
				return err
			}
			run, err := followRun(cmd.Context(), stdout, base, id)
			if err != nil {
				return err
			}
			if run.Stage == "video_failed" {
				if run.Error != nil {
					return fmt.Errorf("video generation failed: %s", run.Error.Message)
				}
				return fmt.Errorf("video generation failed")
			}
			if run.Video != nil {
				fmt.Fprintf(stdout, "Preview: %s\n", run.Video.PreviewURL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Avatar model (male or female)")
	return cmd
}

func newSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the active run's preview video to permanent storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.apiBaseURL()
			if err != nil {
				return err
			}
			id, err := activeRunID(ctx)
			if err != nil {
				return err
			}
			run, err := postRunAction(cmd.Context(), base, id, "save", nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", run.SavedURL)
			return nil
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Retry the active run at the stage that failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if status.ActiveRun == nil {
					return fmt.Errorf("no active run to retry")
				}
				resp, err := client.RunRetry(status.ActiveRun.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retrying run %s from %s\n", shortID(resp.Run.ID), resp.Run.StageLabel)
				return nil
			})
		},
	}
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active run and discard its temporary artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if status.ActiveRun == nil {
					return fmt.Errorf("no active run to cancel")
				}
				if _, err := client.RunCancel(status.ActiveRun.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled run %s\n", shortID(status.ActiveRun.ID))
				return nil
			})
		},
	}
}

func activeRunID(ctx *commandContext) (string, error) {
	client, err := ctx.dialClient()
	if err != nil {
		return "", err
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return "", err
	}
	if status.ActiveRun == nil {
		return "", fmt.Errorf("no active run")
	}
	return status.ActiveRun.ID, nil
}
