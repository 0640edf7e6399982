package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"clippub/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var account string
	var description string
	var hashtags string
	var soundID string
	var mixMode string
	var schedule string
	var headless string

	cmd := &cobra.Command{
		Use:   "submit <video-file>",
		Short: "Submit a clip for publishing and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			video, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open video: %w", err)
			}
			defer video.Close()

			resp, err := client.Submit(cmd.Context(), api.SubmitRequest{
				Account:     account,
				Video:       video,
				VideoName:   filepath.Base(args[0]),
				Description: description,
				Hashtags:    hashtags,
				SoundID:     soundID,
				MixMode:     mixMode,
				Schedule:    schedule,
				Headless:    headless,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Published as %s\n", resp.Account)
			fmt.Fprintf(out, "Job ID:      %s\n", resp.JobID)
			fmt.Fprintf(out, "Description: %s\n", resp.Description)
			fmt.Fprintf(out, "Elapsed:     %.1fs\n", resp.ElapsedSeconds)
			return nil
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "Account to publish as (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Clip description")
	cmd.Flags().StringVar(&hashtags, "hashtags", "", "Hashtags to append (comma or space separated)")
	cmd.Flags().StringVar(&soundID, "sound", "", "Sound library identifier to mix in")
	cmd.Flags().StringVar(&mixMode, "mix-mode", "", "Sound mix mode: mix or replace")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Requested schedule (advisory)")
	cmd.Flags().StringVar(&headless, "headless", "", "Override browser visibility: true or false")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}
