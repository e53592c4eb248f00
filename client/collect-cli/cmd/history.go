package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCommand(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently submitted tasks from the local journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if a.journal == nil {
					return errors.New("the task journal is disabled (journal.enabled)")
				}
				entries, err := a.journal.Recent(ctx, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No tasks submitted yet.")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TASK\tSTATUS\tPROGRESS\tLAST EVENT\tSUBMITTED\tURL")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\t%s\t%s\n",
						e.TaskID, e.Status, e.Progress, e.LastEvent,
						e.SubmittedAt.Local().Format("2006-01-02 15:04:05"), e.VideoURL)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of tasks to show")
	return cmd
}
