package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	"github.com/spf13/cobra"
)

func newDeleteCommand(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete [item-id]",
		Short: "Delete a collected item after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				lists := a.newList()
				lists.RequestDelete(id)

				if !yes {
					fmt.Fprintf(out, "Delete item #%d? This cannot be undone. [y/N] ", id)
					answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
					switch strings.ToLower(strings.TrimSpace(answer)) {
					case "y", "yes":
					default:
						lists.CancelDelete()
						fmt.Fprintln(out, "Cancelled.")
						return nil
					}
				}

				if err := lists.ConfirmDelete(ctx); err != nil {
					return fmt.Errorf("delete: %s", models.UserMessage(err))
				}
				fmt.Fprintf(out, "Deleted item #%d.\n", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking for confirmation")
	return cmd
}
