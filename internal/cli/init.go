package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/config"
)

var errConfigExists = errors.New("config already exists (use --force to overwrite)")

func (a *app) initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default config and create the state directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			cfgPath := filepath.Join(dir, config.DefaultPath)
			if _, err := os.Stat(cfgPath); err == nil && !force {
				return fmt.Errorf("%s: %w", cfgPath, errConfigExists)
			}
			if err := config.Write(cfgPath, config.Default()); err != nil {
				return err
			}
			state := filepath.Join(dir, config.StateDir)
			if err := os.MkdirAll(state, 0o755); err != nil {
				return fmt.Errorf("create state dir: %w", err)
			}
			// keep local databases and artifacts out of version control
			if err := os.WriteFile(filepath.Join(state, ".gitignore"), []byte("*\n"), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s wrote %s and %s/\n", colorOK.Sprint("✓"), cfgPath, state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}
