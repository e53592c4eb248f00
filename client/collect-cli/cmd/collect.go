package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/creative_collection/task"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	"github.com/spf13/cobra"
)

func newCollectCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "collect [link or share text]",
		Short: "Submit a video link and watch the collection task",
		Long: `Submit a video link for collection. The link may be embedded in share text; the first
URL found is used. Progress is printed until the task ends, and the first page of the
collection list is shown when it completes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return runCollect(ctx, cmd, a, strings.Join(args, " "))
			})
		},
	}
}

func runCollect(ctx context.Context, cmd *cobra.Command, a *app, input string) error {
	out := cmd.OutOrStdout()
	interval, err := a.cfg.Collection.PollEvery()
	if err != nil {
		return err
	}

	lists := a.newList()
	var (
		mu   sync.Mutex
		last models.TaskState
	)
	taskOpts := []task.Option{
		task.WithPollInterval(interval),
		task.WithLogger(a.log.Component("task")),
		task.WithRefresh(func(ctx context.Context) { _ = lists.Refresh(ctx) }),
		task.WithOnChange(func(s models.TaskState) {
			mu.Lock()
			defer mu.Unlock()
			if s.TaskID == "" || (s.TaskID == last.TaskID && s.Status == last.Status && s.Progress == last.Progress) {
				return
			}
			last = s
			fmt.Fprintf(out, "[%s] %-10s %3d%%\n", s.TaskID, s.Status, s.DisplayProgress())
		}),
	}
	if a.journal != nil {
		taskOpts = append(taskOpts, task.WithObserver(a.journal))
	}
	tasks := task.New(a.api, taskOpts...)
	defer tasks.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	taskID, err := tasks.Submit(ctx, input)
	if err != nil {
		return fmt.Errorf("submit: %s", models.UserMessage(err))
	}
	fmt.Fprintf(out, "Task submitted: %s (%s)\n", taskID, tasks.Snapshot().VideoURL)

	if err := tasks.Wait(ctx); err != nil {
		fmt.Fprintf(out, "Stopped watching %s; check it later with: collect-cli status %s\n", taskID, taskID)
		return nil
	}

	s := tasks.Snapshot()
	switch {
	case s.Err != "":
		return fmt.Errorf("polling %s stopped: %s", taskID, s.Err)
	case s.Status == models.TaskStatusCompleted:
		if s.Result != nil {
			fmt.Fprintf(out, "Collected item #%d: %s\n", s.Result.ID, s.Result.Title)
		}
		fmt.Fprintln(out)
		printListView(out, lists.Snapshot())
		return nil
	case s.Status == models.TaskStatusNotFound:
		return fmt.Errorf("task %s not found", taskID)
	default:
		return fmt.Errorf("task %s failed", taskID)
	}
}
