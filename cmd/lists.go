package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/regevbr/anydo/internal/anydo"
)

func newListsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show the user's Any.do lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLists(cmd.Context())
		},
	}
	return cmd
}

func runLists(ctx context.Context) error {
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

	categories, err := user.Categories(ctx, anydo.CategoryQuery{})
	if err != nil {
		return err
	}

	for _, category := range categories {
		name, err := category.Name()
		if err != nil {
			return err
		}
		isDefault, err := category.IsDefault()
		if err != nil {
			return err
		}
		if isDefault {
			fmt.Printf("%s (default)\n", name)
		} else {
			fmt.Println(name)
		}
	}
	return nil
}
