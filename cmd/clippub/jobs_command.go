package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List finished publish jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Jobs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(resp.Jobs) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}

			rows := make([][]string, 0, len(resp.Jobs))
			for _, job := range resp.Jobs {
				detail := job.ErrorClass
				if detail == "" {
					detail = "-"
				}
				rows = append(rows, []string{
					shortID(job.ID),
					job.Account,
					job.Outcome,
					detail,
					job.FinishedAt.Local().Format(time.RFC3339),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Job", "Account", "Outcome", "Error", "Finished"},
				rows, nil,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to list")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
