package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"signbridge/internal/api"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var model string
	var generateVideo bool
	var save bool

	cmd := &cobra.Command{
		Use:   "convert <audio-file>",
		Short: "Convert an audio recording into sign language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.apiBaseURL()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()

			run, err := uploadRun(cmd.Context(), base, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Run %s started for %s\n", run.ID, run.SourceFile)

			run, err = followRun(cmd.Context(), stdout, base, run.ID)
			if err != nil {
				return err
			}
			if run.Stage == "failed" {
				if run.Error != nil {
					return fmt.Errorf("conversion failed at %s: %s", run.Error.Stage, run.Error.Message)
				}
				return fmt.Errorf("conversion failed")
			}

			fmt.Fprintln(stdout)
			if run.LanguageName != "" {
				fmt.Fprintf(stdout, "Language:   %s (%s)\n", run.LanguageName, run.DetectedLanguage)
			}
			fmt.Fprintf(stdout, "Transcript: %s\n", run.Transcript)
			fmt.Fprintf(stdout, "English:    %s\n", run.TranslatedText)

			if !generateVideo && !save {
				return nil
			}

			run, err = postRunAction(cmd.Context(), base, run.ID, "video", map[string]string{"model": model})
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout)
			run, err = followRun(cmd.Context(), stdout, base, run.ID)
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
				fmt.Fprintf(stdout, "\nPreview:    %s\n", run.Video.PreviewURL)
				fmt.Fprintf(stdout, "Duration:   %.1fs\n", run.Video.Duration)
				if len(run.Video.SignsSkipped) > 0 {
					fmt.Fprintf(stdout, "Skipped:    %v\n", run.Video.SignsSkipped)
				}
			}

			if !save {
				return nil
			}
			run, err = postRunAction(cmd.Context(), base, run.ID, "save", nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Saved:      %s\n", run.SavedURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Avatar model for video generation (male or female)")
	cmd.Flags().BoolVar(&generateVideo, "video", false, "Generate the sign video after recognition")
	cmd.Flags().BoolVar(&save, "save", false, "Save the generated video to permanent storage (implies --video)")
	return cmd
}

// followRun polls the daemon until the run leaves its processing stages,
// echoing progress transitions as they happen.
func followRun(ctx context.Context, stdout io.Writer, base, id string) (api.Run, error) {
	var lastMessage string
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		run, err := fetchRun(ctx, base, id)
		if err != nil {
			return api.Run{}, err
		}
		if run.Progress.Message != "" && run.Progress.Message != lastMessage {
			fmt.Fprintf(stdout, "  %3.0f%%  %s\n", run.Progress.Percent, run.Progress.Message)
			lastMessage = run.Progress.Message
		}
		switch run.Stage {
		case "complete", "video_ready", "failed", "video_failed":
			return run, nil
		case "idle":
			// A cancelled run parks at idle; a just-started run sits there
			// too until the first stage begins, so keep polling for that.
			if run.Progress.Message == "Cancelled" {
				return run, nil
			}
		}
		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-ticker.C:
		}
	}
}
