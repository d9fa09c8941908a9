// Package importer converts external report formats into metrics ready
// for Ledger.Add. Only lcov coverage reports are supported (§1's
// "file-format importer" external collaborator, supplemented from the
// original implementation's importer/lcov.rs).
package importer

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/binbudget/git-metrics/internal/entity"
)

// LcovOptions selects which coverage kinds to emit.
type LcovOptions struct {
	Branches  bool
	Functions bool
	Lines     bool
}

type lcovTotals struct {
	branchesFound, branchesHit   int
	functionsFound, functionsHit int
	linesFound, linesHit         int
}

// ImportLcov parses an lcov.info file at path and returns the aggregate
// coverage metrics opts selects, in the fixed order
// branches/functions/lines — each as count, hit, and (when the
// denominator is non-zero) percentage.
//
// No third-party lcov parser appears anywhere in the example pack (the
// ecosystem's handful of lcov libraries are all consumed by the original
// Rust program, not by any Go repository retrieved for this module), so
// this parser is a direct, intentionally minimal line-oriented reader of
// the format's handful of relevant record prefixes (BRF/BRH, FNF/FNH,
// LF/LH) rather than a general lcov document model.
func ImportLcov(path string, opts LcovOptions) ([]entity.Metric, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("importer: opening %s: %w", path, err)
	}
	defer f.Close()

	var totals lcovTotals
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(value))
		if convErr != nil {
			continue
		}
		switch key {
		case "BRF":
			totals.branchesFound += n
		case "BRH":
			totals.branchesHit += n
		case "FNF":
			totals.functionsFound += n
		case "FNH":
			totals.functionsHit += n
		case "LF":
			totals.linesFound += n
		case "LH":
			totals.linesHit += n
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("importer: reading %s: %w", path, err)
	}

	var out []entity.Metric
	if opts.Branches {
		out = append(out, coverageMetrics("coverage.branches", totals.branchesFound, totals.branchesHit)...)
	}
	if opts.Functions {
		out = append(out, coverageMetrics("coverage.functions", totals.functionsFound, totals.functionsHit)...)
	}
	if opts.Lines {
		out = append(out, coverageMetrics("coverage.lines", totals.linesFound, totals.linesHit)...)
	}
	return out, nil
}

func coverageMetrics(prefix string, found, hit int) []entity.Metric {
	out := []entity.Metric{
		{Header: entity.MetricHeader{Name: prefix + ".count"}, Value: float64(found)},
		{Header: entity.MetricHeader{Name: prefix + ".hit"}, Value: float64(hit)},
	}
	if found > 0 {
		out = append(out, entity.Metric{
			Header: entity.MetricHeader{Name: prefix + ".percentage"},
			Value:  float64(hit) / float64(found),
		})
	}
	return out
}
