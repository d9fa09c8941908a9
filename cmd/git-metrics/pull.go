package main

import "github.com/spf13/cobra"

func newPullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Fetch remote's published snapshot, leaving local pending changes untouched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return svc.Pull(cmd.Context(), flagRemote)
		},
	}
}
