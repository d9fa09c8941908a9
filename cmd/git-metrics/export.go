package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binbudget/git-metrics/internal/format"
	"github.com/binbudget/git-metrics/internal/service"
)

func newExportCommand() *cobra.Command {
	var outputFormat, rangeArg string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a combined check+log report for CI artifact upload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := svc.OpenConfig(cmd.Context())
			if err != nil {
				return err
			}
			report, err := svc.Export(cmd.Context(), service.ExportOptions{Remote: flagRemote, Range: rangeArg})
			if err != nil {
				return err
			}
			switch outputFormat {
			case "json":
				out, err := format.ExportJSON(report)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			case "markdown":
				fmt.Fprint(cmd.OutOrStdout(), format.ExportMarkdown(cfg, report))
			default:
				return fmt.Errorf("git-metrics: unknown --format %q, expected json or markdown", outputFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFormat, "format", "json", `output format: "json" or "markdown"`)
	cmd.Flags().StringVar(&rangeArg, "range", "", "revision or range to export (defaults to HEAD)")
	return cmd
}
