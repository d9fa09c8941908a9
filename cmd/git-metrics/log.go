package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binbudget/git-metrics/internal/format"
	"github.com/binbudget/git-metrics/internal/service"
)

func newLogCommand() *cobra.Command {
	var filterEmpty bool

	cmd := &cobra.Command{
		Use:   "log [range]",
		Short: "List each commit in range alongside the metrics it records itself",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rangeArg string
			if len(args) == 1 {
				rangeArg = args[0]
			}
			cfg, err := svc.OpenConfig(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := svc.Log(cmd.Context(), service.LogOptions{Remote: flagRemote, Range: rangeArg, FilterEmpty: filterEmpty})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), format.Log(cfg, entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&filterEmpty, "filter-empty", false, "omit commits that recorded no metrics of their own")
	return cmd
}
