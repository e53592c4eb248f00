package cmd

import (
	"context"
	"fmt"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	"github.com/spf13/cobra"
)

func newStatusCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [task-id]",
		Short: "Poll a collection task once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				res, err := a.api.Status(ctx, args[0])
				if err != nil {
					return fmt.Errorf("status: %s", models.UserMessage(err))
				}
				out := cmd.OutOrStdout()
				state := models.TaskState{TaskID: args[0], Status: res.Status, Progress: res.Progress}
				fmt.Fprintf(out, "Task %s: %s %d%%\n", args[0], res.Status, state.DisplayProgress())
				if res.Status == models.TaskStatusCompleted && res.Data != nil {
					fmt.Fprintln(out)
					printItem(out, res.Data)
				}
				return nil
			})
		},
	}
}
