package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/binbudget/git-metrics/internal/service"
)

func newRemoveCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "remove <index>",
		Short: "Record a Remove change for the metric at the given position in `show`'s output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("git-metrics: invalid index %q: %w", args[0], err)
			}
			return svc.Remove(cmd.Context(), index, service.RemoveOptions{Target: target, Remote: flagRemote})
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "commit to record the removal against (defaults to HEAD)")
	return cmd
}
