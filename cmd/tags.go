package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/regevbr/anydo/internal/anydo"
)

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Show the user's Any.do tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTags(cmd.Context())
		},
	}
	return cmd
}

func runTags(ctx context.Context) error {
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

	labels, err := user.Labels(ctx, anydo.LabelQuery{})
	if err != nil {
		return err
	}

	for _, label := range labels {
		name, err := label.Name()
		if err != nil {
			return err
		}
		fmt.Println(name)
	}
	return nil
}
