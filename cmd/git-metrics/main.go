// Command git-metrics attaches numeric metrics to commits via git notes,
// tracks their evolution across history, diffs them between revisions and
// enforces budget rules in CI.
package main

import (
	"errors"
	"os"

	"github.com/binbudget/git-metrics/internal/gitmetricslog"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errCheckFailed) {
			gitmetricslog.Logger.Error().Err(err).Msg("git-metrics failed")
		}
		os.Exit(1)
	}
}
