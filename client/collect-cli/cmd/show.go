package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxParallelDetails bounds concurrent detail requests of one show command.
const maxParallelDetails = 4

func newShowCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [item-id...]",
		Short: "Show the full record of one or more collected items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, arg := range args {
				id, err := parseItemID(arg)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				lists := a.newList()
				items := make([]*models.CollectionItem, len(ids))

				g, gctx := errgroup.WithContext(ctx)
				g.SetLimit(maxParallelDetails)
				for i, id := range ids {
					i, id := i, id
					g.Go(func() error {
						item, err := lists.Detail(gctx, id)
						if err != nil {
							return fmt.Errorf("show %d: %s", id, models.UserMessage(err))
						}
						items[i] = item
						return nil
					})
				}
				if err := g.Wait(); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for i, item := range items {
					if i > 0 {
						fmt.Fprintln(out)
					}
					printItem(out, item)
				}
				return nil
			})
		},
	}
}

func parseItemID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", arg)
	}
	return id, nil
}
