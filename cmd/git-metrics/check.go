package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binbudget/git-metrics/internal/format"
	"github.com/binbudget/git-metrics/internal/rules"
	"github.com/binbudget/git-metrics/internal/service"
)

// errCheckFailed signals a non-exceptional rule-check failure: the run
// completed normally but at least one budget rule failed, so the process
// must exit non-zero without logging it as an application error.
var errCheckFailed = errors.New("one or more rules failed")

func newCheckCommand() *cobra.Command {
	var showSuccessRules, showSkippedRules bool
	var rangeArg string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate budget rules against a diff and exit non-zero on failure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := svc.OpenConfig(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Check(cmd.Context(), service.CheckOptions{Remote: flagRemote, Range: rangeArg})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), format.Check(cfg, result, format.CheckOptions{
				ShowSuccessRules: showSuccessRules,
				ShowSkippedRules: showSkippedRules,
			}))
			if result.Status.Status() == rules.Failed {
				return errCheckFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rangeArg, "range", "", "revision or range to check (defaults to HEAD)")
	cmd.Flags().BoolVar(&showSuccessRules, "show-success-rules", false, "also print rules that passed")
	cmd.Flags().BoolVar(&showSkippedRules, "show-skipped-rules", false, "also print rules that were skipped")
	return cmd
}
