package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/analysis"
)

// parseCursor splits "file:line:col"; the file part may itself contain colons.
func parseCursor(s string) (string, int, int, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return "", 0, 0, fmt.Errorf("cursor %q is not file:line:col", s)
	}
	j := strings.LastIndex(s[:i], ":")
	if j <= 0 {
		return "", 0, 0, fmt.Errorf("cursor %q is not file:line:col", s)
	}
	line, err := strconv.Atoi(s[j+1 : i])
	if err != nil || line < 1 {
		return "", 0, 0, fmt.Errorf("cursor %q: bad line", s)
	}
	col, err := strconv.Atoi(s[i+1:])
	if err != nil || col < 1 {
		return "", 0, 0, fmt.Errorf("cursor %q: bad column", s)
	}
	return s[:j], line, col, nil
}

func (a *app) load(cmd *cobra.Command, root string) (*analysis.Codebase, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return analysis.NewLoader(cfg.Options(), a.logger(cfg)).Load(cmd.Context(), root)
}

func (a *app) hoverCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "hover <file:line:col>",
		Short: "Describe the identifier at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, line, col, err := parseCursor(args[0])
			if err != nil {
				return err
			}
			cb, err := a.load(cmd, root)
			if err != nil {
				return err
			}
			h, err := cb.HoverInfo(file, line, col)
			if err != nil {
				return err
			}
			if a.asJSON {
				return writeJSON(a.out, h)
			}
			fmt.Fprintf(a.out, "%s %s\n", colorLow.Sprint(h.Kind), colorTitle.Sprint(h.Signature))
			if h.Doc != "" {
				fmt.Fprintln(a.out, h.Doc)
			}
			fmt.Fprintf(a.out, "%s %s\n", colorDim.Sprint("defined at"), location(h.Definition))
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "module root to load")
	return cmd
}

func (a *app) completeCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "complete <file:line:col>",
		Short: "List completions at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, line, col, err := parseCursor(args[0])
			if err != nil {
				return err
			}
			cb, err := a.load(cmd, root)
			if err != nil {
				return err
			}
			cs, err := cb.Completions(file, line, col)
			if err != nil {
				return err
			}
			if a.asJSON {
				return writeJSON(a.out, cs)
			}
			for _, c := range cs {
				fmt.Fprintf(a.out, "%-24s %-10s %s\n", c.Label, colorLow.Sprint(c.Kind), colorDim.Sprint(c.Detail))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "module root to load")
	return cmd
}
