package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/regevbr/anydo/internal/anydo"
)

func newNewTaskCmd() *cobra.Command {
	var (
		list  string
		note  string
		tags  string
		owner string
		due   string
	)

	cmd := &cobra.Command{
		Use:   "new-task <title>",
		Short: "Create a new Any.do task",
		Long: `Create a new task. Without --list the task goes to the user's default
list. The due date accepts a datetime ("2025-01-31 18:00:00") or a bare
date ("2025-01-31"), interpreted in the local timezone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNewTask(cmd.Context(), args[0], list, note, tags, owner, due)
		},
	}

	cmd.Flags().StringVar(&list, "list", "", "List to create the task in (default: the user's default list)")
	cmd.Flags().StringVar(&note, "note", "", "Free-form note for the task")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tag names to attach")
	cmd.Flags().StringVar(&owner, "owner", "", "Email address to assign the task to")
	cmd.Flags().StringVar(&due, "due", "", "Due date (datetime or date, local timezone)")

	return cmd
}

func runNewTask(ctx context.Context, title, list, note, tags, owner, due string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	user, err := client.GetUser(ctx, false)
	if err != nil {
		return err
	}

	input := anydo.NewTaskInput{
		Title:      title,
		Note:       note,
		AssignedTo: owner,
	}

	if list != "" {
		category, err := findCategory(ctx, user, list)
		if err != nil {
			return err
		}
		input.CategoryID = category.ID()
	}

	if tagNames := parseCommaSeparatedList(tags); len(tagNames) > 0 {
		labelIDs, err := findLabelIDs(ctx, user, tagNames)
		if err != nil {
			return err
		}
		input.Labels = labelIDs
	}

	if due != "" {
		dueDate, err := parseDueDateArg(due)
		if err != nil {
			return err
		}
		input.DueDate = dueDate
	}

	task, err := anydo.CreateTask(ctx, user, input)
	if err != nil {
		return err
	}

	fmt.Printf("Created task %q with id %s\n", title, task.ID())
	return nil
}

// findCategory resolves a list name to a category, case-insensitively.
func findCategory(ctx context.Context, user *anydo.User, name string) (*anydo.Category, error) {
	categories, err := user.Categories(ctx, anydo.CategoryQuery{})
	if err != nil {
		return nil, err
	}
	for _, category := range categories {
		candidate, err := category.Name()
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(candidate, name) {
			return category, nil
		}
	}
	return nil, fmt.Errorf("unknown list %q", name)
}

// findLabelIDs resolves tag names to label ids, case-insensitively.
func findLabelIDs(ctx context.Context, user *anydo.User, names []string) ([]string, error) {
	labels, err := user.Labels(ctx, anydo.LabelQuery{})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		found := ""
		for _, label := range labels {
			candidate, err := label.Name()
			if err != nil {
				return nil, err
			}
			if strings.EqualFold(candidate, name) {
				found = label.ID()
				break
			}
		}
		if found == "" {
			return nil, fmt.Errorf("unknown tag %q", name)
		}
		ids = append(ids, found)
	}
	return ids, nil
}
