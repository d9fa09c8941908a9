package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/service"
)

func newAddCommand() *cobra.Command {
	var target string
	var tags []string

	cmd := &cobra.Command{
		Use:   "add <name> <value>",
		Short: "Record an Add change for a metric on a commit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("git-metrics: invalid value %q: %w", args[1], err)
			}
			t, err := parseTags(tags)
			if err != nil {
				return err
			}
			metric := entity.Metric{Header: entity.MetricHeader{Name: args[0], Tags: t}, Value: value}
			return svc.Add(cmd.Context(), metric, service.AddOptions{Target: target})
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "commit to attach the metric to (defaults to HEAD)")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "tag in key:value form; may be repeated")
	return cmd
}
