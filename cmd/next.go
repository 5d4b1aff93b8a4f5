package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next [list]",
		Short: "Show the most urgent task of each list",
		Long: `Show the most urgent task of each Any.do list, picked by due date.
With a list name, only that list is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listName := ""
			if len(args) == 1 {
				listName = args[0]
			}
			return runNext(cmd.Context(), listName)
		},
	}
	return cmd
}

func runNext(ctx context.Context, listName string) error {
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

		event := adapter.Event()
		if event == nil {
			fmt.Printf("%s: no pending tasks\n", adapter.Name())
			continue
		}
		fmt.Printf("%s: %s (due %s)\n", adapter.Name(), event.Summary, event.End.DateTime)
	}

	if listName != "" && !hasAdapter(adapters, listName) {
		return fmt.Errorf("unknown list %q", listName)
	}
	return nil
}
