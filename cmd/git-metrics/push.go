package main

import "github.com/spf13/cobra"

func newPushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Fold the local change log into remote's snapshot and publish it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return svc.Push(cmd.Context(), flagRemote)
		},
	}
}
