package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binbudget/git-metrics/internal/importer"
	"github.com/binbudget/git-metrics/internal/service"
)

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import metrics from a third-party report format",
	}
	cmd.AddCommand(newImportLcovCommand())
	return cmd
}

func newImportLcovCommand() *cobra.Command {
	var target string
	var disableBranches, disableFunctions, disableLines bool

	cmd := &cobra.Command{
		Use:   "lcov <path>",
		Short: "Import branch/function/line coverage totals from an lcov.info file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics, err := importer.ImportLcov(args[0], importer.LcovOptions{
				Branches:  !disableBranches,
				Functions: !disableFunctions,
				Lines:     !disableLines,
			})
			if err != nil {
				return err
			}
			for _, metric := range metrics {
				if err := svc.Add(cmd.Context(), metric, service.AddOptions{Target: target}); err != nil {
					return fmt.Errorf("git-metrics: recording %s: %w", metric.Header, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "commit to attach the imported metrics to (defaults to HEAD)")
	cmd.Flags().BoolVar(&disableBranches, "disable-branches", false, "skip branch coverage metrics")
	cmd.Flags().BoolVar(&disableFunctions, "disable-functions", false, "skip function coverage metrics")
	cmd.Flags().BoolVar(&disableLines, "disable-lines", false, "skip line coverage metrics")
	return cmd
}
