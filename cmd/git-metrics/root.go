package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/binbudget/git-metrics/internal/gitmetricslog"
	"github.com/binbudget/git-metrics/internal/service"
	"github.com/binbudget/git-metrics/internal/vcs"
)

var (
	flagBackend string
	flagVerbose string
	flagJSONLog bool
	flagRemote  string

	svc *service.Service
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "git-metrics",
		Short:         "Attach, diff and enforce budgets on numeric metrics stored in git notes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			gitmetricslog.SetLevel(flagVerbose)
			if flagJSONLog {
				gitmetricslog.SetJSON()
			}
			backend, err := openBackend(flagBackend)
			if err != nil {
				return err
			}
			svc = service.New(backend)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagBackend, "backend", "command", `git backend to use: "command" (shell out to git) or "go-git" (pure-Go plumbing)`)
	root.PersistentFlags().StringVarP(&flagVerbose, "verbose", "v", "warn", "log level: debug, info, warn, error, crit")
	root.PersistentFlags().BoolVar(&flagJSONLog, "log-json", false, "emit logs as newline-delimited JSON")
	root.PersistentFlags().StringVar(&flagRemote, "remote", "origin", "remote whose published snapshot to read or write")

	root.AddCommand(
		newInitCommand(),
		newAddCommand(),
		newRemoveCommand(),
		newShowCommand(),
		newLogCommand(),
		newDiffCommand(),
		newCheckCommand(),
		newPushCommand(),
		newPullCommand(),
		newExportCommand(),
		newImportCommand(),
	)
	return root
}

// openBackend opens the requested implementation. The command backend runs
// git in the working directory itself; the go-git backend is opened at the
// repository root, resolved first via a throwaway CommandBackend (git
// rev-parse works from any subdirectory).
func openBackend(kind string) (vcs.Backend, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("git-metrics: resolving working directory: %w", err)
	}

	switch kind {
	case "command", "":
		return vcs.NewCommandBackend(cwd), nil
	case "go-git":
		root, err := vcs.NewCommandBackend(cwd).RootPath()
		if err != nil {
			return nil, err
		}
		return vcs.OpenGitBackend(root)
	default:
		return nil, fmt.Errorf("git-metrics: unknown --backend %q", kind)
	}
}
