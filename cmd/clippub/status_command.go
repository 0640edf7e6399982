package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			slot := "free"
			if status.Occupied {
				slot = fmt.Sprintf("occupied since %s", status.OccupiedSince.Format(time.RFC3339))
			}
			rows := [][]string{
				{"Running", yesNo(status.Running)},
				{"PID", fmt.Sprintf("%d", status.PID)},
				{"Publish slot", slot},
				{"Working dir", status.WorkingDir},
				{"History DB", status.HistoryDBPath},
				{"Lock file", status.LockFilePath},
			}

			out := cmd.OutOrStdout()
			if stdoutIsTerminal() {
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			}
			for _, row := range rows {
				fmt.Fprintf(out, "%s: %s\n", row[0], row[1])
			}
			return nil
		},
	}
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check daemon liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
