package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binbudget/git-metrics/internal/format"
	"github.com/binbudget/git-metrics/internal/service"
)

func newDiffCommand() *cobra.Command {
	var showPrevious bool
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "diff [range]",
		Short: "Compare metrics before and after a commit or range",
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
			diffs, err := svc.Diff(cmd.Context(), service.DiffOptions{Remote: flagRemote, Range: rangeArg})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), format.Diff(cfg, diffs, format.DiffOptions{ShowPrevious: showPrevious, Format: outputFormat}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showPrevious, "show-previous", false, "also print the value before the change")
	cmd.Flags().StringVar(&outputFormat, "format", "text", `output format: "text" or "markdown"`)
	return cmd
}
