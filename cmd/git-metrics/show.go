package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binbudget/git-metrics/internal/format"
	"github.com/binbudget/git-metrics/internal/service"
)

func newShowCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective metric set at a commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := svc.OpenConfig(cmd.Context())
			if err != nil {
				return err
			}
			stack, err := svc.Show(cmd.Context(), service.ShowOptions{Target: target, Remote: flagRemote})
			if err != nil {
				return err
			}
			for i, m := range stack.Metrics() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", i, format.Metric(cfg.Formatter(m.Header.Name), m))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "commit to inspect (defaults to HEAD)")
	return cmd
}
