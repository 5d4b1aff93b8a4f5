package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks [list]",
		Short: "Show the full task ranking of each list",
		Long: `Show every pending task of each Any.do list, most urgent first.
With a list name, only that list is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listName := ""
			if len(args) == 1 {
				listName = args[0]
			}
			return runTasks(cmd.Context(), listName)
		},
	}
	return cmd
}

func runTasks(ctx context.Context, listName string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	adapters, err := buildAdapters(ctx, client, cfg)
	if err != nil {
		return err
	}

	for _, adapter := range adapters {
		if listName != "" && !strings.EqualFold(adapter.Name(), listName) {
			continue
		}

		if err := adapter.Update(ctx); err != nil {
			return fmt.Errorf("failed to update %s: %w", adapter.Name(), err)
		}

		fmt.Printf("%s:\n", adapter.Name())
		summaries := adapter.AllTaskSummaries()
		if len(summaries) == 0 {
			fmt.Println("  no pending tasks")
			continue
		}
		for i, summary := range summaries {
			fmt.Printf("  %d. %s\n", i+1, summary)
		}
	}

	if listName != "" && !hasAdapter(adapters, listName) {
		return fmt.Errorf("unknown list %q", listName)
	}
	return nil
}
