package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/analysis"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/diagnostics"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/report"
)

// ErrNoSnapshot means gs run has not been executed in the state directory.
var ErrNoSnapshot = errors.New("no snapshot found; run `gs run` first")

func (a *app) snapshot() (*analysis.Snapshot, error) {
	path := filepath.Join(a.stateDir, lastSnapshot)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSnapshot)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return report.DecodeSnapshot(f)
}

func (a *app) errorsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "List diagnostics of the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.snapshot()
			if err != nil {
				return err
			}
			list := diagnostics.Errors(snap.Diagnostics)
			if all {
				list = snap.Diagnostics
			}
			summary := snap.ErrorSummary()
			if a.asJSON {
				return writeJSON(a.out, map[string]any{"diagnostics": list, "summary": summary})
			}
			for _, d := range list {
				fmt.Fprintf(a.out, "%s %s %s %s\n",
					location(d.Position),
					diagnosticColor(d.Severity).Sprint(d.Severity),
					d.Message,
					colorDim.Sprintf("[%s/%s]", d.Category, d.Code))
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, colorOK.Sprint("no errors"))
			}
			fmt.Fprintf(a.out, "\n%d diagnostic(s)", summary.Total)
			cats := make([]string, 0, len(summary.ByCategory))
			for c := range summary.ByCategory {
				cats = append(cats, string(c))
			}
			sort.Strings(cats)
			for _, c := range cats {
				fmt.Fprintf(a.out, "  %s %d", c, summary.ByCategory[diagnostics.Category(c)])
			}
			fmt.Fprintln(a.out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include warnings, information and hints")
	return cmd
}

func (a *app) deadCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deadcode",
		Short: "List symbols nothing reaches from an entry point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.snapshot()
			if err != nil {
				return err
			}
			dead := snap.DeadCodeSymbols()
			if a.asJSON {
				return writeJSON(a.out, dead)
			}
			for _, s := range dead {
				fmt.Fprintf(a.out, "%s %s %s\n", location(s.Position), colorLow.Sprint(s.Kind), s.ID)
			}
			fmt.Fprintf(a.out, "\n%d unused symbol(s)\n", len(dead))
			return nil
		},
	}
}

func (a *app) blastCmd() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "blast <symbol>",
		Short: "Show every symbol affected by changing symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.snapshot()
			if err != nil {
				return err
			}
			br, err := snap.BlastRadius(args[0], depth)
			if err != nil {
				return err
			}
			if a.asJSON {
				return writeJSON(a.out, br)
			}
			fmt.Fprintf(a.out, "%s %s\n", colorTitle.Sprint(br.Root.ID), colorDim.Sprint(location(br.Root.Position)))
			for _, im := range br.Affected {
				fmt.Fprintf(a.out, "  %s%s %s\n",
					colorMedium.Sprintf("%d", im.Depth), colorDim.Sprint(" "+location(im.Symbol.Position)), im.Symbol.ID)
			}
			fmt.Fprintf(a.out, "\n%d affected symbol(s), max depth %d\n", len(br.Affected), br.MaxDepth)
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0, "maximum distance to follow (0 means unlimited)")
	return cmd
}
