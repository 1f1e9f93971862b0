// Package cli implements the gs command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/config"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/logger"
)

// localTenant owns analyses started from the command line.
const localTenant = "local"

type app struct {
	cfgPath  string
	stateDir string
	asJSON   bool
	out      io.Writer
	errOut   io.Writer
}

func (a *app) config() (*config.Config, error) {
	return config.Load(a.cfgPath)
}

func (a *app) logger(cfg *config.Config) hclog.Logger {
	return logger.NewWithOutput(cfg.Logger, "gs", a.errOut)
}

// NewRootCmd builds the gs command tree writing to out and errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:                   "gs [command]",
		Short:                 "Graph-based analysis of Go codebases",
		Long:                  "gs builds a symbol graph of a Go module and reports diagnostics, dead code, blast radius and a health grade.",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", config.DefaultPath, "config file")
	flags.StringVar(&a.stateDir, "state-dir", config.StateDir, "directory holding the last run's outputs")
	flags.BoolVar(&a.asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(
		a.initCmd(),
		a.runCmd(),
		a.errorsCmd(),
		a.deadCodeCmd(),
		a.blastCmd(),
		a.hoverCmd(),
		a.completeCmd(),
		a.serveCmd(),
		a.versionCmd(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var threshold *ThresholdError
		if !errors.As(err, &threshold) {
			fmt.Fprintln(os.Stderr, colorError.Sprint("error: ")+err.Error())
			return 2
		}
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}
