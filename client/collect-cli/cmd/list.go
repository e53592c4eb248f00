package cmd

import (
	"context"
	"fmt"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/creative_collection/list"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	"github.com/spf13/cobra"
)

type listOptions struct {
	page     int
	pageSize int
	status   string
	platform string
}

func newListCommand(opts *globalOptions) *cobra.Command {
	lo := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collected items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, ok := models.ParseStatusFilter(lo.status)
			if !ok {
				return fmt.Errorf("invalid --status %q: use all, success or failed", lo.status)
			}
			if lo.pageSize < 0 || lo.pageSize > 100 {
				return fmt.Errorf("invalid --page-size %d: must be between 1 and 100", lo.pageSize)
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if lo.pageSize > 0 {
					a.cfg.Collection.PageSize = lo.pageSize
				}
				lists := a.newList(list.WithFilters(filter, lo.platform))
				if err := lists.GoToPage(ctx, lo.page); err != nil {
					return fmt.Errorf("list: %s", models.UserMessage(err))
				}
				printListView(cmd.OutOrStdout(), lists.Snapshot())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&lo.page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&lo.pageSize, "page-size", 0, "items per page (default: collection.pageSize)")
	cmd.Flags().StringVar(&lo.status, "status", "all", "status filter: all, success or failed")
	cmd.Flags().StringVar(&lo.platform, "platform", "", "source platform filter, e.g. 抖音")
	return cmd
}
